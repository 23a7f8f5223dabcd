package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, g *globalOptions, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(g)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, &globalOptions{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "netclient")

	out, err = run(t, &globalOptions{}, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRequestCmd_Live(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/1", r.URL.Path)
		assert.Equal(t, "yes", r.Header.Get("X-Debug"))
		_, _ = w.Write([]byte(`{"data":{"user":{"id":1,"name":"Ann"}}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	targetFile := writeFile(t, dir, "user.yaml", "base_url: "+srv.URL+"\npath: /users/1\nkey_path: data.user\n")

	out, err := run(t, &globalOptions{}, "request", "--target", targetFile, "-H", "X-Debug=yes", "--raw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Ann"}`, out)

	out, err = run(t, &globalOptions{}, "request", "--target", targetFile)
	require.NoError(t, err)
	assert.Contains(t, out, "200 OK")
	assert.Contains(t, out, `"name": "Ann"`)
}

func TestRequestCmd_ImmediateStub(t *testing.T) {
	dir := t.TempDir()
	fixtures := filepath.Join(dir, "fixtures")
	writeFile(t, fixtures, "user_ok.json", `{"data":{"user":{"id":5}}}`)
	targetFile := writeFile(t, dir, "user.yaml", `
base_url: https://api.invalid
path: /users/5
key_path: data.user
stub:
  fixture: user_ok
`)

	out, err := run(t, &globalOptions{}, "request", "--target", targetFile,
		"--stub", "immediate", "--fixtures", fixtures, "--raw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5}`, out)
}

func TestRequestCmd_FixturesFromAppFileSystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/user.yaml", []byte(`
base_url: https://api.invalid
key_path: data.user
stub:
  fixture: user_ok
`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/fixtures/user_ok.json", []byte(`{"data":{"user":{"id":9}}}`), 0o644))

	out, err := run(t, &globalOptions{fs: fs}, "request", "--target", "/work/user.yaml",
		"--stub", "immediate", "--fixtures", "/work/fixtures", "--raw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9}`, out)
}

func TestRequestCmd_Failure(t *testing.T) {
	dir := t.TempDir()
	targetFile := writeFile(t, dir, "user.yaml", "base_url: https://api.invalid\nstub:\n  fixture: missing\n")

	out, err := run(t, &globalOptions{}, "request", "--target", targetFile,
		"--stub", "immediate", "--fixtures", dir)
	require.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "error [invalid_stub_file]")
}

func TestRequestCmd_Schema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"user":{"id":"7","name":"Ann"}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	targetFile := writeFile(t, dir, "user.yaml", "base_url: "+srv.URL+"\nkey_path: user\n")
	schemaFile := writeFile(t, dir, "user.schema.json", `{
  "type": "object",
  "required": ["id", "name"],
  "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}
}`)
	looseFile := writeFile(t, dir, "loose.schema.json", `{"type": "object", "required": ["name"]}`)

	out, err := run(t, &globalOptions{}, "request", "--target", targetFile, "--schema", schemaFile)
	require.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "payload does not match schema")
	assert.Contains(t, out, "/id")

	out, err = run(t, &globalOptions{}, "request", "--target", targetFile, "--schema", looseFile, "--raw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","name":"Ann"}`, out)

	_, err = run(t, &globalOptions{}, "request", "--target", targetFile, "--schema", filepath.Join(dir, "nope.json"))
	assert.ErrorContains(t, err, "read schema")
}

func TestRequestCmd_InvalidStubFlag(t *testing.T) {
	dir := t.TempDir()
	targetFile := writeFile(t, dir, "user.yaml", "base_url: https://api.invalid\n")

	_, err := run(t, &globalOptions{}, "request", "--target", targetFile, "--stub", "sometimes")
	assert.Error(t, err)
}

func TestRequestCmd_MissingTargetFlag(t *testing.T) {
	_, err := run(t, &globalOptions{}, "request")
	assert.Error(t, err)
}

func TestNewApp_ConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/netclient.yaml", []byte(`
name: netclient
environment: staging
client:
  timeout: 5s
  stub:
    mode: delayed
    delay: 250ms
mock:
  port: 9000
  routes_file: /etc/routes.yaml
`), 0o644))

	a, err := newApp(context.Background(), &globalOptions{fs: fs, configFile: "/etc/netclient.yaml", logLevel: "error"})
	require.NoError(t, err)
	defer func() { _ = a.close(context.Background()) }()

	assert.Equal(t, "staging", a.cfg.Environment)
	assert.Equal(t, "5s", a.cfg.Client.Timeout.String())
	assert.Equal(t, "delayed", a.cfg.Client.Stub.Mode)
	assert.Equal(t, "250ms", a.cfg.Client.Stub.Delay.String())
	assert.Equal(t, 9000, a.cfg.Mock.Port)
	assert.Equal(t, "staging", a.cfg.Observability.Environment)
	assert.Nil(t, a.metrics)
}

func TestNewApp_MissingConfigFile(t *testing.T) {
	_, err := newApp(context.Background(), &globalOptions{fs: afero.NewMemMapFs(), configFile: "/nope.yaml"})
	assert.Error(t, err)
}

func TestNewMockServer(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/mock/routes.yaml", []byte("routes:\n  - path: /users/:id\n    fixture: user_ok\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/mock/fixtures/user_ok.json", []byte(`{"id":1}`), 0o644))

	a := &app{fs: fs}
	a.cfg.Mock.RoutesFile = "/mock/routes.yaml"
	a.cfg.Mock.FixturesDir = "/mock/fixtures"

	s, err := newMockServer(a, a.cfg.Mock)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/users/3") //nolint:noctx // test
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMockCmd_RequiresRoutes(t *testing.T) {
	_, err := run(t, &globalOptions{fs: afero.NewMemMapFs()}, "mock")
	assert.ErrorContains(t, err, "no route file")
}
