package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fixtures/user_ok.json", []byte(`{"id":1}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/fixtures/avatar.png", []byte{0x89, 'P'}, 0o644))

	src := NewFS(fs, "/fixtures", "")

	b, ok := src.Load("user_ok")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1}`, string(b))

	b, ok = src.Load("avatar.png")
	require.True(t, ok)
	assert.Equal(t, []byte{0x89, 'P'}, b)

	_, ok = src.Load("user_missing")
	assert.False(t, ok)
}

func TestFS_RejectsTraversal(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/secret.json", []byte(`{}`), 0o644))

	src := NewFS(fs, "/fixtures", "json")
	_, ok := src.Load("../secret")
	assert.False(t, ok)
	_, ok = src.Load("")
	assert.False(t, ok)
}

func TestFS_Path(t *testing.T) {
	src := NewFS(afero.NewMemMapFs(), "stubs", "yaml")
	assert.Equal(t, "stubs/users.yaml", src.Path("users"))
	assert.Equal(t, "stubs/users.json", src.Path("users.json"))
}

func TestNewDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.json"), []byte(`[]`), 0o644))

	b, ok := NewDir(dir).Load("ok")
	require.True(t, ok)
	assert.Equal(t, "[]", string(b))
}

func TestMapAndChain(t *testing.T) {
	first := Map{"a": []byte("1")}
	second := SourceFunc(func(name string) ([]byte, bool) {
		if name == "b" {
			return []byte("2"), true
		}
		return nil, false
	})

	src := Chain(first, second)
	b, ok := src.Load("a")
	assert.True(t, ok)
	assert.Equal(t, "1", string(b))

	b, ok = src.Load("b")
	assert.True(t, ok)
	assert.Equal(t, "2", string(b))

	_, ok = src.Load("c")
	assert.False(t, ok)

	_, ok = None.Load("a")
	assert.False(t, ok)
}

func TestFS_LoadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fx/user.yaml", []byte("data:\n  user:\n    id: 3\n    tags: [a, b]\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/fx/broken.yml", []byte("a: [\n"), 0o644))

	src := NewFS(fs, "/fx", "yaml")
	b, ok := src.Load("user")
	require.True(t, ok)
	assert.JSONEq(t, `{"data":{"user":{"id":3,"tags":["a","b"]}}}`, string(b))

	_, ok = src.Load("broken.yml")
	assert.False(t, ok)
}
