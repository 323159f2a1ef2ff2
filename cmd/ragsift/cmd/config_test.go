package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragsift/ragsift/internal/config"
)

func TestConfigInitCmd_CreatesUserConfig(t *testing.T) {
	// Given: no user configuration
	isolateEnv(t)
	chdirTemp(t)

	// When: initializing it
	output, err := runCLI(t, "config", "init")

	// Then: the template lands at the user config path
	require.NoError(t, err)
	assert.Contains(t, output, "Created user configuration")
	assert.Contains(t, output, "Next steps:")

	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "match_count")
}

func TestConfigInitCmd_ExistingConfig_NotOverwritten(t *testing.T) {
	// Given: an existing user configuration
	isolateEnv(t)
	chdirTemp(t)
	_, err := runCLI(t, "config", "init")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.GetUserConfigPath(), []byte("version: 1\n"), 0o644))

	// When: initializing again without --force
	output, err := runCLI(t, "config", "init")

	// Then: the file is kept and --force is suggested
	require.NoError(t, err)
	assert.Contains(t, output, "User configuration already exists")
	assert.Contains(t, output, "Use --force to overwrite it with the template")

	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestConfigInitCmd_Force_Overwrites(t *testing.T) {
	// Given: an existing user configuration
	isolateEnv(t)
	chdirTemp(t)
	_, err := runCLI(t, "config", "init")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.GetUserConfigPath(), []byte("version: 1\n"), 0o644))

	// When: initializing with --force
	output, err := runCLI(t, "config", "init", "--force")

	// Then: the template replaces the file
	require.NoError(t, err)
	assert.Contains(t, output, "Created user configuration")

	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "match_count")
}

func TestConfigInitCmd_Force_BacksUpExisting(t *testing.T) {
	// Given: an existing user configuration with local edits
	isolateEnv(t)
	chdirTemp(t)
	_, err := runCLI(t, "config", "init")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.GetUserConfigPath(), []byte("version: 1\n"), 0o644))

	// When: overwriting with --force
	output, err := runCLI(t, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, output, "backed up to")

	// Then: the old content survives in the newest backup
	backups, err := config.ListUserConfigBackups()
	require.NoError(t, err)
	require.NotEmpty(t, backups)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestConfigInitCmd_Project_CreatesProjectConfig(t *testing.T) {
	// Given: a project directory without a config
	isolateEnv(t)
	dir := chdirTemp(t)

	// When: initializing a project config
	output, err := runCLI(t, "config", "init", "--project")

	// Then: .ragsift.yaml is written to the project root
	require.NoError(t, err)
	assert.Contains(t, output, "Created project configuration")

	data, err := os.ReadFile(filepath.Join(dir, ".ragsift.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "search:")
}

func TestConfigShowCmd_Defaults(t *testing.T) {
	// Given: an isolated environment
	isolateEnv(t)
	chdirTemp(t)

	// When: showing the hardcoded defaults
	output, err := runCLI(t, "config", "show", "--source", "defaults")

	// Then: the default values render as YAML
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration source: defaults (hardcoded)")
	assert.Contains(t, output, "match_count: 5")
	assert.Contains(t, output, "backend: mcp")
}

func TestConfigShowCmd_Merged_AppliesProjectConfig(t *testing.T) {
	// Given: a project config overriding the threshold
	isolateEnv(t)
	dir := chdirTemp(t)
	content := "search:\n  similarity_threshold: 0.7\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ragsift.yaml"), []byte(content), 0o644))

	// When: showing the merged configuration
	output, err := runCLI(t, "config", "show")

	// Then: the override wins and defaults fill the rest
	require.NoError(t, err)
	assert.Contains(t, output, "similarity_threshold: 0.7")
	assert.Contains(t, output, "match_count: 5")
}

func TestConfigShowCmd_JSON_IsValid(t *testing.T) {
	// Given: an isolated environment
	isolateEnv(t)
	chdirTemp(t)

	// When: showing defaults as JSON
	output, err := runCLI(t, "config", "show", "--source", "defaults", "--json")

	// Then: the output parses back into a config
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(output), &cfg))
	assert.Equal(t, 5, cfg.Search.MatchCount)
	assert.Equal(t, "mcp", cfg.Retrieval.Backend)
}

func TestConfigShowCmd_User_Missing_Explains(t *testing.T) {
	// Given: no user configuration
	isolateEnv(t)
	chdirTemp(t)

	// When: showing the user source
	output, err := runCLI(t, "config", "show", "--source", "user")

	// Then: the command points at init instead of failing
	require.NoError(t, err)
	assert.Contains(t, output, "No user configuration file found")
	assert.Contains(t, output, "ragsift config init")
}

func TestConfigShowCmd_User_ShowsFileValues(t *testing.T) {
	// Given: a user config with one override
	isolateEnv(t)
	chdirTemp(t)
	path := config.GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("search:\n  match_count: 9\n"), 0o644))

	// When: showing the user source
	output, err := runCLI(t, "config", "show", "--source", "user")

	// Then: the file's value renders over the defaults
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration source: user")
	assert.Contains(t, output, "match_count: 9")
}

func TestConfigShowCmd_InvalidSource_Rejected(t *testing.T) {
	isolateEnv(t)
	chdirTemp(t)

	// When: asking for an unknown source
	_, err := runCLI(t, "config", "show", "--source", "bogus")

	// Then: the valid sources are listed
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source: bogus")
}

func TestConfigPathCmd_PrintsUserPath(t *testing.T) {
	// Given: an isolated environment
	home := isolateEnv(t)
	chdirTemp(t)

	// When: printing the config path
	output, err := runCLI(t, "config", "path")

	// Then: the XDG path under the isolated home is shown
	require.NoError(t, err)
	assert.Contains(t, output, filepath.Join(home, ".config", "ragsift", "config.yaml"))
}
