// Package reconcile diffs resolved registry versions against a declared
// dependency mapping.
//
// Reconcile is pure: it never touches the filesystem or the network, so a
// dry run and a persisting run share the exact same diff.
package reconcile

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Strategy decides when a declared entry counts as up to date.
type Strategy string

const (
	// StrategyRange treats a declared semver range as up to date when the
	// resolved version satisfies it ("^4.17.0" vs 4.18.2 is unchanged).
	StrategyRange Strategy = "range"

	// StrategyExact requires the declared string to equal the resolved
	// version character for character.
	StrategyExact Strategy = "exact"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyRange || s == StrategyExact
}

// Change pairs a declared entry with the version the registry resolved.
type Change struct {
	Declared string
	Resolved string
}

// Result buckets every resolved name into exactly one category.
type Result struct {
	Added     map[string]string // Resolved but not declared
	Updated   map[string]Change // Declared, but the resolved version moved past it
	Unchanged map[string]string // Declared and still current
}

// Empty reports whether the reconciliation produced no entries at all.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Updated) == 0 && len(r.Unchanged) == 0
}

// Reconcile compares resolved versions against the declared mapping.
// Names present only in declared are left alone; nothing is ever removed.
func Reconcile(resolved, declared map[string]string, strategy Strategy) *Result {
	res := &Result{
		Added:     make(map[string]string),
		Updated:   make(map[string]Change),
		Unchanged: make(map[string]string),
	}

	for name, version := range resolved {
		spec, isDeclared := declared[name]
		switch {
		case !isDeclared:
			res.Added[name] = version
		case satisfied(spec, version, strategy):
			res.Unchanged[name] = spec
		default:
			res.Updated[name] = Change{Declared: spec, Resolved: version}
		}
	}
	return res
}

// satisfied reports whether the declared spec already covers the resolved
// version under the given strategy. Specs or versions that don't parse as
// semver fall back to exact string comparison.
func satisfied(spec, version string, strategy Strategy) bool {
	if strategy == StrategyExact {
		return spec == version
	}

	c, err := semver.NewConstraint(strings.TrimSpace(spec))
	if err != nil {
		return spec == version
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return spec == version
	}
	return c.Check(v)
}
