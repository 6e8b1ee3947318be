package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a temp project: a skema.yaml with absolute
// paths, a migrations directory, and the given migration files.
func writeProject(t *testing.T, migrations map[string]string) (configPath, outputPath, migrationsDir string) {
	t.Helper()
	root := t.TempDir()

	migrationsDir = filepath.Join(root, "migrations")
	require.NoError(t, os.MkdirAll(migrationsDir, 0755))
	for name, content := range migrations {
		require.NoError(t, os.WriteFile(filepath.Join(migrationsDir, name), []byte(content), 0644))
	}

	outputPath = filepath.Join(root, "generated", "schema.js")
	configPath = filepath.Join(root, "skema.yaml")
	cfg := fmt.Sprintf("migrations: %s\noutput: %s\nstore: %s\n",
		migrationsDir, outputPath, filepath.Join(root, "ledger.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))

	return configPath, outputPath, migrationsDir
}

func runCommand(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

const createUsersMigration = `migration: {
	id:   "m-users"
	name: "create users"
	seq:  1
	ops: [
		{
			op:         "create_collection"
			collection: "users"
			schema: {
				properties: {
					name: {kind: "string"}
					joined: {kind: "date", default: {call: "now"}}
				}
				optional: ["joined"]
			}
		},
	]
}
`

func TestGenerate_WritesModuleAndPrintsPath(t *testing.T) {
	configPath, outputPath, _ := writeProject(t, map[string]string{
		"001_create_users.cue": createUsersMigration,
	})

	stdout, err := runCommand(t, "--config", configPath, "generate")
	require.NoError(t, err)
	assert.Contains(t, stdout, outputPath)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "export const schema = {")
	assert.Contains(t, text, "users: {")
	assert.Contains(t, text, "s.Optional(s.Date({ default: now() }))")
}

func TestGenerate_JSONOutput(t *testing.T) {
	configPath, outputPath, _ := writeProject(t, map[string]string{
		"001_create_users.cue": createUsersMigration,
	})

	stdout, err := runCommand(t, "--config", configPath, "--format", "json", "generate")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, outputPath, payload["path"])
	assert.Equal(t, float64(1), payload["version"])
	assert.Equal(t, float64(1), payload["collections"])
}

func TestGenerate_OutputFlagOverridesConfig(t *testing.T) {
	configPath, _, _ := writeProject(t, map[string]string{
		"001_create_users.cue": createUsersMigration,
	})
	override := filepath.Join(t.TempDir(), "elsewhere", "schema.js")

	stdout, err := runCommand(t, "--config", configPath, "generate", "-o", override)
	require.NoError(t, err)
	assert.Contains(t, stdout, override)

	_, err = os.Stat(override)
	require.NoError(t, err)
}

func TestGenerate_NothingToGenerate(t *testing.T) {
	configPath, outputPath, _ := writeProject(t, nil)

	stdout, err := runCommand(t, "--config", configPath, "generate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing to generate")

	_, err = os.Stat(outputPath)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_InvalidDefaultFunctionWritesNoFile(t *testing.T) {
	bad := `migration: {
	id:   "m-bad"
	name: "bad default"
	seq:  1
	ops: [
		{
			op:         "create_collection"
			collection: "users"
			schema: {
				properties: {
					total: {kind: "number", default: {call: "sum"}}
				}
			}
		},
	]
}
`
	configPath, outputPath, _ := writeProject(t, map[string]string{
		"001_bad.cue": bad,
	})

	stdout, err := runCommand(t, "--config", configPath, "generate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
	assert.Contains(t, stdout, "sum")

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_CompileErrorReportsPosition(t *testing.T) {
	configPath, _, _ := writeProject(t, map[string]string{
		"001_broken.cue": `migration: {seq: 1, ops: [{op: "delete_collection", collection: "x"}]}`,
	})

	stdout, err := runCommand(t, "--config", configPath, "generate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E003]")
	assert.Contains(t, stdout, "name is required")
}

func TestGenerate_SkipsChangedMigrations(t *testing.T) {
	teams := `migration: {
	id:   "m-teams"
	name: "create teams"
	seq:  2
	ops: [
		{
			op:         "create_collection"
			collection: "teams"
			schema: {properties: {title: {kind: "string"}}}
		},
	]
}
`
	configPath, outputPath, migrationsDir := writeProject(t, map[string]string{
		"001_create_users.cue": createUsersMigration,
		"002_create_teams.cue": teams,
	})

	_, err := runCommand(t, "--config", configPath, "generate")
	require.NoError(t, err)

	// Edit the teams migration in place. Same id, different contents,
	// so its fingerprint drifts and the next run must hold it back.
	edited := []byte(strings.Replace(teams, `title: {kind: "string"}`, `title: {kind: "string", nullable: true}`, 1))
	require.NoError(t, os.WriteFile(filepath.Join(migrationsDir, "002_create_teams.cue"), edited, 0644))

	stdout, err := runCommand(t, "--config", configPath, "--format", "json", "generate")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	payload := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), payload["migrations"])
	assert.Equal(t, float64(1), payload["skipped"])

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "teams: {")
}
