// Package matching implements second-order pattern matching over the
// expressions of package expr.
//
// Version: 0.3.0
//
// A pattern may contain metavariables and applications of unknown functions,
// written as expression function applications (EFAs), to argument
// expressions. A MatchingChallenge collects pattern/expression constraints
// and finds every substitution of the metavariables, functions included,
// that makes each pattern equal to its expression up to alpha-equivalence.
//
// The search is a depth-first backtracking procedure over independent,
// cloned search states. Constraints are processed in a fixed priority order
// (failure, identity, binding, simplification, EFA), and an EFA whose
// function is still a metavariable branches into the classical constant,
// projection and imitation guesses.
package matching

import "runtime"

// Version represents the current version of the matching engine.
const Version = "0.3.0"

// VersionInfo provides detailed version information.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
	}
}
