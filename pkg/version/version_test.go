package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, version, buildTime, commit string) {
	t.Helper()
	origVersion, origBuildTime, origCommit := Version, BuildTime, Commit
	t.Cleanup(func() {
		Version, BuildTime, Commit = origVersion, origBuildTime, origCommit
	})
	Version, BuildTime, Commit = version, buildTime, commit
}

func TestInfo(t *testing.T) {
	withBuildInfo(t, "0.3.1", "2026-10-01", "abcdef0123456789")

	info := Info()
	assert.True(t, strings.HasPrefix(info, "labnet 0.3.1"), info)
	assert.Contains(t, info, "(abcdef01)")
	assert.NotContains(t, info, "abcdef0123456789")
	assert.Contains(t, info, "2026-10-01")
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)

	Commit = "abc123"
	assert.Contains(t, Info(), "(abc123)")
}

func TestMap(t *testing.T) {
	withBuildInfo(t, "0.3.1", "2026-10-01", "abcdef0123456789")

	m := Map()
	assert.Equal(t, "0.3.1", m["version"])
	assert.Equal(t, "2026-10-01", m["buildTime"])
	assert.Equal(t, "abcdef0123456789", m["commit"])
	assert.Equal(t, runtime.GOOS, m["os"])
	assert.Equal(t, runtime.GOARCH, m["arch"])
	assert.True(t, strings.HasPrefix(m["goVersion"], "go"))
}
