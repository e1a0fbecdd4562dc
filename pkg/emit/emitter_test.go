package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rzbill/labnet/pkg/log"
	"github.com/rzbill/labnet/pkg/topology"
	"github.com/rzbill/labnet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type failingSubmitter struct{ err error }

func (f failingSubmitter) Submit(ctx context.Context, doc []byte) error { return f.err }

type recordingSubmitter struct{ calls [][]byte }

func (r *recordingSubmitter) Submit(ctx context.Context, doc []byte) error {
	r.calls = append(r.calls, append([]byte(nil), doc...))
	return nil
}

func build(t *testing.T, workers, tors int) *types.Topology {
	t.Helper()
	spec := types.DefaultClusterSpec()
	spec.WorkerCount = workers
	spec.TorCount = tors
	spec.Username = "carol"
	topo, err := topology.Build(spec)
	require.NoError(t, err)
	return topo
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatRSpec, false},
		{"xml", FormatRSpec, false},
		{"RSPEC", FormatRSpec, false},
		{"yml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmitSubmitsOnce(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			sub := &recordingSubmitter{}
			e := New(format, sub, log.NewTestLogger())
			require.NoError(t, e.Emit(context.Background(), build(t, 6, 2)))
			require.Len(t, sub.calls, 1)
			assert.NotEmpty(t, sub.calls[0])
		})
	}
}

func TestEmitIsIdempotent(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			var a, b bytes.Buffer
			require.NoError(t, New(format, WriterSubmitter{W: &a}, nil).Emit(context.Background(), build(t, 7, 4)))
			require.NoError(t, New(format, WriterSubmitter{W: &b}, nil).Emit(context.Background(), build(t, 7, 4)))
			assert.Equal(t, a.String(), b.String())
		})
	}
}

func TestEmitSubmitFailure(t *testing.T) {
	cause := errors.New("channel closed")
	e := New(FormatRSpec, failingSubmitter{err: cause}, nil)

	err := e.Emit(context.Background(), build(t, 2, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEmissionFailure)
	assert.ErrorIs(t, err, cause)

	var ee *types.EmissionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "submit", ee.Stage)
}

func TestEmitUnknownFormat(t *testing.T) {
	sub := &recordingSubmitter{}
	err := New(Format("toml"), sub, nil).Emit(context.Background(), build(t, 2, 2))
	assert.ErrorIs(t, err, types.ErrEmissionFailure)
	assert.Empty(t, sub.calls)
}

func TestJSONDocumentMembership(t *testing.T) {
	topo := build(t, 6, 2)
	out, err := Marshal(FormatJSON, topo)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "ClusterTopology", doc.Kind)
	require.Len(t, doc.Nodes, 8)
	require.Len(t, doc.Links, 4)

	var routable []string
	for _, n := range doc.Nodes {
		if n.RoutableControlIP {
			routable = append(routable, n.Name)
		}
		assert.NotEmpty(t, n.Link)
	}
	assert.Equal(t, []string{"jumphost"}, routable)

	var ifaces []string
	for _, l := range doc.Links {
		ifaces = append(ifaces, l.Interfaces...)
	}
	sort.Strings(ifaces)
	var want []string
	for _, n := range topo.Nodes {
		want = append(want, n.InterfaceID())
	}
	sort.Strings(want)
	assert.Equal(t, want, ifaces)
}

func TestYAMLDocument(t *testing.T) {
	out, err := Marshal(FormatYAML, build(t, 2, 2))
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal(out, &doc))
	assert.Equal(t, 2, doc.Spec.NumWorker)
	assert.Equal(t, "agg01", doc.Links[2].Name)
	assert.Equal(t, []string{"tor01", "tor02"}, doc.Links[2].Links)
	assert.Equal(t, []string{"agg01"}, doc.Links[3].Links)
}

func TestFileSubmitter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.xml")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	e := New(FormatRSpec, FileSubmitter{Path: path}, nil)
	require.NoError(t, e.Emit(context.Background(), build(t, 1, 2)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<node client_id="worker01"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestWriterSubmitterHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := WriterSubmitter{W: &buf}.Submit(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
