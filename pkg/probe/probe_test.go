package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rzbill/labnet/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	host    string
	command string
}

type fakeRunner struct {
	calls    []call
	statuses map[string]int
	errs     map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, host, command string) (int, error) {
	f.calls = append(f.calls, call{host: host, command: command})
	if err := f.errs[host]; err != nil {
		return 255, err
	}
	return f.statuses[host], nil
}

func writeHosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "ping -c 5 -i .2 10.0.0.99 && iperf3 -c 10.0.0.99 -t 4", Command("10.0.0.99", DefaultOptions()))
	assert.Equal(t, "ping -c 1 -i 1 h && iperf3 -c h -t 10", Command("h", Options{PingCount: 1, PingInterval: "1", IperfSeconds: 10}))
}

func TestReadTargets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"first token only", "10.0.0.1 10.0.0.2\n10.0.0.3\n", []string{"10.0.0.1", "10.0.0.3"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"blank lines skipped", "\n  \na\n\n", []string{"a"}},
		{"tabs and leading space", "  h1\th2\n", []string{"h1"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTargets(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunFileUsesFirstTokenPerLine(t *testing.T) {
	path := writeHosts(t, "10.0.0.1 10.0.0.2\n10.0.0.3\n")
	runner := &fakeRunner{}
	p := New(runner, DefaultOptions(), log.NewTestLogger())

	res, err := p.RunFile(context.Background(), path, "10.0.0.99")
	require.NoError(t, err)

	require.Len(t, runner.calls, 2)
	assert.Equal(t, "10.0.0.1", runner.calls[0].host)
	assert.Equal(t, "10.0.0.3", runner.calls[1].host)
	for _, c := range runner.calls {
		assert.Equal(t, "ping -c 5 -i .2 10.0.0.99 && iperf3 -c 10.0.0.99 -t 4", c.command)
	}
	assert.Len(t, res.Attempts, 2)
	assert.NotEmpty(t, res.RunID)
}

func TestRunContinuesAfterFailures(t *testing.T) {
	runner := &fakeRunner{
		statuses: map[string]int{"b": 1},
		errs:     map[string]error{"a": errors.New("connection refused")},
	}
	tl := log.NewTestLogger()
	p := New(runner, DefaultOptions(), tl)

	res := p.Run(context.Background(), []string{"a", "b", "c"}, "ref")

	require.Len(t, runner.calls, 3)
	assert.False(t, res.Attempts[0].OK())
	assert.False(t, res.Attempts[1].OK())
	assert.True(t, res.Attempts[2].OK())
	assert.Equal(t, 0, res.LastStatus())
	assert.Len(t, tl.EntriesAtLevel(log.WarnLevel), 2)
	assert.Len(t, tl.EntriesWithMessage("test host"), 3)
}

func TestLastStatus(t *testing.T) {
	runner := &fakeRunner{statuses: map[string]int{"last": 2}}
	res := New(runner, DefaultOptions(), log.NewTestLogger()).Run(context.Background(), []string{"first", "last"}, "ref")
	assert.Equal(t, 2, res.LastStatus())

	assert.Equal(t, 0, Result{}.LastStatus())
}

func TestRunFileMissing(t *testing.T) {
	p := New(&fakeRunner{}, DefaultOptions(), log.NewTestLogger())
	_, err := p.RunFile(context.Background(), filepath.Join(t.TempDir(), "nope"), "ref")
	assert.Error(t, err)
}

func TestRunLogsRunID(t *testing.T) {
	tl := log.NewTestLogger()
	res := New(&fakeRunner{}, DefaultOptions(), tl).Run(context.Background(), []string{"h"}, "ref")

	entries := tl.EntriesWithMessage("test host")
	require.Len(t, entries, 1)
	id, ok := entries[0].Field(log.RunIDKey)
	require.True(t, ok)
	assert.Equal(t, res.RunID, id)
}

func TestResultRecord(t *testing.T) {
	runner := &fakeRunner{
		statuses: map[string]int{"h2": 1},
		errs:     map[string]error{"h3": errors.New("dial failed")},
	}
	res := New(runner, DefaultOptions(), log.NewTestLogger()).Run(context.Background(), []string{"h1", "h2", "h3"}, "10.0.0.9")

	rec := res.Record()
	assert.Equal(t, res.RunID, rec.ID)
	assert.Equal(t, "10.0.0.9", rec.Ref)
	assert.False(t, rec.FinishedAt.Before(rec.StartedAt))
	require.Len(t, rec.Attempts, 3)
	assert.Empty(t, rec.Attempts[0].Error)
	assert.Equal(t, 1, rec.Attempts[1].Status)
	assert.Equal(t, "dial failed", rec.Attempts[2].Error)
	assert.Equal(t, 255, rec.LastStatus)
	assert.Equal(t, 2, rec.Failed())
}
