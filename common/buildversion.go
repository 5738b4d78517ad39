package common

import "runtime/debug"

// GetCommitHash returns the short vcs revision stamped into the binary.
func GetCommitHash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) >= 8 {
				return s.Value[:8]
			}
			return s.Value
		}
	}
	return "unknown"
}
