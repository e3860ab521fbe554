// Package version holds build information stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X layercanvas/internal/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import "runtime/debug"

var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func init() {
	if GitCommit != "unknown" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 7 {
				GitCommit = s.Value[:7]
			} else {
				GitCommit = s.Value
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				BuildTime = s.Value
			}
		}
	}
}
