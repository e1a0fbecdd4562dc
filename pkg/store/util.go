package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rzbill/labnet/pkg/types"
)

const probeRunKind = "probe-runs"

// MakeKey creates the key of a run.
func MakeKey(id string) []byte {
	return []byte(fmt.Sprintf("%s/%s", probeRunKind, id))
}

// MakePrefix is the prefix shared by every run key.
func MakePrefix() []byte {
	return []byte(probeRunKind + "/")
}

// ParseKey returns the run id of a key.
func ParseKey(key []byte) (string, bool) {
	id, ok := strings.CutPrefix(string(key), probeRunKind+"/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// sortRuns orders runs by start time, then id.
func sortRuns(runs []*types.ProbeRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
}
