package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rzbill/labnet/pkg/remote"
	"github.com/rzbill/labnet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate keeps config lookup away from the developer's own files.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdirForTest(t, dir)
	t.Setenv("HOME", dir)
	return dir
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerateDefaultCluster(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommand(t, "generate", "--username", "alice")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "<?xml"))
	assert.Equal(t, 8, strings.Count(stdout, "<node client_id="))
	assert.Equal(t, 4, strings.Count(stdout, "<link client_id="))
	assert.Contains(t, stdout, `<node client_id="worker06"`)
	assert.Contains(t, stdout, "system-setup.sh /dev/xvdca alice 6")
}

func TestGenerateRejectsOddTorCount(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		tors string
	}{
		{"one", "1"},
		{"three", "3"},
		{"zero", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, "generate", "--num-tor", tt.tors)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidTopology)
			assert.Empty(t, stdout)
		})
	}
}

func TestGenerateJSONToFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out", "cluster.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	stdout, stderr, err := executeCommand(t, "generate", "--format", "json", "--num-worker", "2", "--num-tor", "4", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "wrote json descriptor")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "ClusterTopology", doc["kind"])
	assert.Len(t, doc["nodes"], 4)
	assert.Len(t, doc["links"], 7)
}

func TestGenerateReadsConfigFile(t *testing.T) {
	dir := isolate(t)
	cfg := `cluster:
  num_worker: 1
  num_tor: 2
output:
  format: yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labnet.yaml"), []byte(cfg), 0644))

	stdout, _, err := executeCommand(t, "generate")
	require.NoError(t, err)

	var doc struct {
		Nodes []struct {
			Name string `yaml:"name"`
		} `yaml:"nodes"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "worker01", doc.Nodes[2].Name)
}

func TestGenerateUnknownFormat(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "generate", "--format", "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output config")
}

func TestValidate(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommand(t, "validate", "--num-worker", "10", "--num-tor", "4")
	require.NoError(t, err)
	assert.Contains(t, stdout, "topology is valid: 12 nodes, 4 tor, 2 aggregation, 1 core")

	_, _, err = executeCommand(t, "validate", "--num-tor", "5")
	assert.ErrorIs(t, err, types.ErrInvalidTopology)
}

func TestShow(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommand(t, "show", "--num-worker", "0", "--num-tor", "4")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Nodes")
	assert.Contains(t, stdout, "Links")
	assert.Contains(t, stdout, "ROUTABLE")
	assert.Contains(t, stdout, "expctrl")
	assert.Contains(t, stdout, "agg02")
	assert.Contains(t, stdout, "agg01,agg02")
	assert.Contains(t, stdout, "<empty>")
}

func TestShowLinksOnly(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCommand(t, "show", "--links", "--no-headers")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Nodes")
	assert.NotContains(t, stdout, "TIER")
	assert.Contains(t, stdout, "core")

	_, _, err = executeCommand(t, "show", "--links", "--nodes")
	assert.Error(t, err)
}

type scriptedRunner struct {
	statuses map[string]int
	hosts    []string
	opts     remote.Options
}

func (r *scriptedRunner) Run(ctx context.Context, host, command string) (int, error) {
	r.hosts = append(r.hosts, host)
	return r.statuses[host], nil
}

func stubRunner(t *testing.T, r *scriptedRunner) {
	t.Helper()
	prev := newRunner
	newRunner = func(kind remote.Kind, opts remote.Options) (remote.Runner, error) {
		r.opts = opts
		return r, nil
	}
	t.Cleanup(func() { newRunner = prev })
}

func writeHosts(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "hosts.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProbeExitsWithLastStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]int
		wantCode int
	}{
		{"all pass", nil, 0},
		{"first fails", map[string]int{"10.0.0.1": 1}, 0},
		{"last fails", map[string]int{"10.0.0.3": 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			hosts := writeHosts(t, dir, "10.0.0.1 a\n\n10.0.0.3 b\n")
			runner := &scriptedRunner{statuses: tt.statuses}
			stubRunner(t, runner)

			_, _, err := executeCommand(t, "probe", "--user", "root", hosts, "10.0.0.9")
			assert.Equal(t, []string{"10.0.0.1", "10.0.0.3"}, runner.hosts)
			assert.Equal(t, "root", runner.opts.User)

			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.wantCode, exitErr.Code)
		})
	}
}

func TestProbeSummary(t *testing.T) {
	dir := isolate(t)
	hosts := writeHosts(t, dir, "h1\nh2\n")
	stubRunner(t, &scriptedRunner{statuses: map[string]int{"h1": 1}})

	stdout, _, err := executeCommand(t, "probe", "--summary", hosts, "10.0.0.9")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✗ h1 (status 1)")
	assert.Contains(t, stdout, "✓ h2 (status 0)")
}

func TestProbeArgs(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "probe", "hosts.txt")
	assert.Error(t, err)

	_, _, err = executeCommand(t, "probe", "missing.txt", "10.0.0.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open host list")
}

func TestConfigInitAndView(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "labnet.yaml")

	stdout, _, err := executeCommand(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, path)

	_, _, err = executeCommand(t, "config", "init", path)
	assert.Error(t, err)

	_, _, err = executeCommand(t, "config", "init", "--force", path)
	require.NoError(t, err)

	t.Setenv("LABNET_CLUSTER_NUM_WORKER", "9")
	stdout, _, err = executeCommand(t, "config", "view")
	require.NoError(t, err)
	assert.Contains(t, stdout, "num_worker: 9")
	assert.Contains(t, stdout, "runner: exec")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "labnet "))
}

func TestProbeRecordsHistory(t *testing.T) {
	dir := isolate(t)
	hosts := writeHosts(t, dir, "h1\nh2\n")
	stubRunner(t, &scriptedRunner{statuses: map[string]int{"h2": 4}})
	historyDir := filepath.Join(dir, "history")

	_, _, err := executeCommand(t, "probe", "--history-dir", historyDir, hosts, "10.0.0.9")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 4, exitErr.Code)

	stdout, _, err := executeCommand(t, "history", "--history-dir", historyDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "LAST_STATUS")
	assert.Contains(t, stdout, "10.0.0.9")

	s, err := openHistory(historyDir, nil)
	require.NoError(t, err)
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Len(t, runs, 1)
	id := runs[0].ID

	stdout, _, err = executeCommand(t, "history", "--history-dir", historyDir, id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run: "+id)
	assert.Contains(t, stdout, "h2")

	stdout, _, err = executeCommand(t, "history", "--history-dir", historyDir, "--delete", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted run "+id)

	stdout, _, err = executeCommand(t, "history", "--history-dir", historyDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No probe runs recorded")
}

func TestHistoryNeedsDirectory(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history directory configured")
}

// chdirForTest changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
