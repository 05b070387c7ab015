package version

import (
	"runtime/debug"
	"testing"
)

func stub(t *testing.T, version, commit string, bi *debug.BuildInfo) {
	t.Helper()
	origVersion, origCommit, origRead := Version, GitCommit, readBuildInfo
	t.Cleanup(func() {
		Version, GitCommit, readBuildInfo = origVersion, origCommit, origRead
	})
	Version, GitCommit = version, commit
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGet(t *testing.T) {
	embedded := &debug.BuildInfo{
		GoVersion: "go1.23.1",
		Main:      debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	tests := []struct {
		name    string
		version string
		commit  string
		bi      *debug.BuildInfo
		want    Info
	}{
		{"nothing", "", "", nil, Info{Version: "dev"}},
		{"devel module", "", "", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, Info{Version: "dev"}},
		{"embedded", "", "", embedded, Info{Version: "0.4.0", GitCommit: "0123456", GoVersion: "go1.23.1", Dirty: true}},
		{"ldflags win", "1.2.0", "abc", embedded, Info{Version: "1.2.0", GitCommit: "abc", GoVersion: "go1.23.1", Dirty: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub(t, tt.version, tt.commit, tt.bi)
			if got := Get(); got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		info  Info
		short string
		full  string
	}{
		{Info{Version: "dev"}, "dev", "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234", "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true, GoVersion: "go1.23.1"}, "1.0.0-abc1234-dirty", "1.0.0-abc1234-dirty (go1.23.1)"},
	}
	for _, tt := range tests {
		if got := tt.info.Short(); got != tt.short {
			t.Errorf("Short() = %q, want %q", got, tt.short)
		}
		if got := tt.info.String(); got != tt.full {
			t.Errorf("String() = %q, want %q", got, tt.full)
		}
	}
}

func TestUserAgent(t *testing.T) {
	stub(t, "2.0.0", "", nil)
	if got := UserAgent("rxget"); got != "rxget/2.0.0" {
		t.Errorf("UserAgent() = %q", got)
	}
}
