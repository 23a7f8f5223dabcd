package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/netclient/validation"
)

type stubSection struct {
	Mode  string        `mapstructure:"mode"`
	Delay time.Duration `mapstructure:"delay"`
}

type clientSection struct {
	Timeout    time.Duration     `mapstructure:"timeout"`
	Headers    map[string]string `mapstructure:"headers"`
	Stub       stubSection       `mapstructure:"stub"`
	SkipVerify bool              `mapstructure:"skip_verify"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Client        clientSection `mapstructure:"client"`
}

const yamlConfig = `
name: netclient
environment: staging
logging:
  level: warn
client:
  timeout: 5s
  headers:
    X-Api-Key: abc
  stub:
    mode: immediate
    delay: 250ms
`

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestLoad_YAML(t *testing.T) {
	fs := memFS(t, map[string]string{"/etc/netclient.yml": yamlConfig})

	var cfg testConfig
	err := Load("netclient", &cfg,
		WithFileSystem(fs),
		WithConfigFile("/etc/netclient.yml"),
		WithEnviron([]string{}),
	)
	require.NoError(t, err)

	assert.Equal(t, "netclient", cfg.Name)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "immediate", cfg.Client.Stub.Mode)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Stub.Delay)
	// viper lower-cases map keys
	assert.Equal(t, "abc", cfg.Client.Headers["x-api-key"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/cfg.yml": yamlConfig,
		"/.env":    "NETCLIENT_CLIENT_STUB_MODE=delayed\nNETCLIENT_CLIENT_STUB_DELAY=2s\n",
	})

	var cfg testConfig
	err := Load("netclient", &cfg,
		WithFileSystem(fs),
		WithConfigFile("/cfg.yml"),
		WithEnvFile("/.env"),
		WithEnviron([]string{
			"NETCLIENT_CLIENT_STUB_DELAY=3s",
			"NETCLIENT_CLIENT_SKIP_VERIFY=true",
			"UNRELATED_CLIENT_TIMEOUT=1h",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "delayed", cfg.Client.Stub.Mode, ".env overrides yaml")
	assert.Equal(t, 3*time.Second, cfg.Client.Stub.Delay, "process env overrides .env")
	assert.True(t, cfg.Client.SkipVerify)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout, "other prefixes are ignored")
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	var cfg testConfig
	err := Load("netclient", &cfg, WithFileSystem(afero.NewMemMapFs()), WithConfigFile("/missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoad_NoFilesUsesEnvOnly(t *testing.T) {
	var cfg testConfig
	err := Load("netclient", &cfg,
		WithFileSystem(afero.NewMemMapFs()),
		WithEnviron([]string{"NETCLIENT_NAME=from-env"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	fs := memFS(t, map[string]string{"/bad.yml": "client: [unclosed"})

	var cfg testConfig
	err := Load("netclient", &cfg, WithFileSystem(fs), WithConfigFile("/bad.yml"), WithEnviron([]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_OsFileSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netclient.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: disk\n"), 0o644))

	var cfg testConfig
	require.NoError(t, Load("netclient", &cfg, WithConfigFile(path), WithEnviron([]string{})))
	assert.Equal(t, "disk", cfg.Name)
}

func TestResolver_SearchOrder(t *testing.T) {
	fs := memFS(t, map[string]string{
		"./cmd/netclient/config.yml": "name: a",
		"./config.yml":               "name: b",
		".env":                       "",
	})
	r := &Resolver{Fs: fs}

	files := r.Resolve("netclient", LoaderConfig{})
	assert.Equal(t, "./cmd/netclient/config.yml", files.ConfigFile)
	assert.Equal(t, ".env", files.EnvFile)

	files = r.Resolve("netclient", LoaderConfig{ConfigFile: "/explicit.yml"})
	assert.Equal(t, "/explicit.yml", files.ConfigFile)
}

func TestKeyVariants(t *testing.T) {
	assert.Equal(t, []string{"name"}, keyVariants("NAME"))
	assert.Equal(t, []string{"stub_delay", "stub.delay"}, keyVariants("STUB_DELAY"))
	assert.ElementsMatch(t,
		[]string{"tls_skip_verify", "tls.skip.verify", "tls.skip_verify", "tls_skip.verify"},
		keyVariants("TLS_SKIP_VERIFY"))
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "NETCLIENT_", envPrefix("netclient"))
	assert.Equal(t, "MOCK_SERVER_", envPrefix("mock-server"))
}

func TestServiceConfig(t *testing.T) {
	var cfg ServiceConfig
	cfg.ApplyDefaults("netclient")
	assert.Equal(t, "netclient", cfg.Name)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "netclient", cfg.Logging.ServiceName)
	require.NoError(t, cfg.Validate())

	cfg.Environment = "qa"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
	assert.Contains(t, err.Error(), "environment")
}
