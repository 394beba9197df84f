package resolve

import (
	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/depsync/pkg/errors"
)

// Select picks the best version for each candidate and returns the
// name-to-version mapping plus a failure entry for every candidate that
// yielded nothing. Selection is pure and idempotent; candidates with no
// usable versions are reported, never silently dropped.
func Select(candidates []Candidate) (map[string]string, []Failure) {
	resolved := make(map[string]string, len(candidates))
	var failures []Failure

	for _, c := range candidates {
		version, ok := Best(c.Versions)
		if !ok {
			failures = append(failures, Failure{
				Name: c.Name,
				Err:  errors.New(errors.ErrCodePackageNotFound, "no published versions for %s", c.Name),
			})
			continue
		}
		resolved[c.Name] = version
	}
	return resolved, failures
}

// Best returns the highest stable version among the given version strings.
// Pre-releases only count when no stable release exists. Strings that are
// not valid semver are skipped. Returns false when nothing usable remains.
func Best(versions []string) (string, bool) {
	var stable, pre *semver.Version
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if v.Prerelease() == "" {
			if stable == nil || v.GreaterThan(stable) {
				stable = v
			}
		} else if pre == nil || v.GreaterThan(pre) {
			pre = v
		}
	}
	if stable != nil {
		return stable.Original(), true
	}
	if pre != nil {
		return pre.Original(), true
	}
	return "", false
}
