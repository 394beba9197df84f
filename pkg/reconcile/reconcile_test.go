package reconcile

import (
	"maps"
	"testing"
)

func TestReconcileBuckets(t *testing.T) {
	// express stays inside its declared range, react moved past it, lodash
	// is new, jquery is declared only and must be left alone.
	resolved := map[string]string{
		"express": "4.18.2",
		"lodash":  "4.17.21",
		"react":   "18.2.0",
	}
	declared := map[string]string{
		"express": "^4.17.0",
		"react":   "^17.0.0",
		"jquery":  "^3.6.0",
	}

	res := Reconcile(resolved, declared, StrategyRange)

	if got := res.Added["lodash"]; got != "4.17.21" {
		t.Errorf("Added[lodash] = %q, want %q", got, "4.17.21")
	}
	if got := res.Unchanged["express"]; got != "^4.17.0" {
		t.Errorf("Unchanged[express] = %q, want declared spec", got)
	}
	want := Change{Declared: "^17.0.0", Resolved: "18.2.0"}
	if got := res.Updated["react"]; got != want {
		t.Errorf("Updated[react] = %+v, want %+v", got, want)
	}

	total := len(res.Added) + len(res.Updated) + len(res.Unchanged)
	if total != len(resolved) {
		t.Errorf("bucketed %d names, want %d", total, len(resolved))
	}
	for _, bucket := range []map[string]string{res.Added, res.Unchanged} {
		if _, ok := bucket["jquery"]; ok {
			t.Error("declared-only name leaked into result")
		}
	}
}

func TestReconcileStrategyDivergence(t *testing.T) {
	resolved := map[string]string{"pkg": "1.2.0"}
	declared := map[string]string{"pkg": "^1.0.0"}

	if res := Reconcile(resolved, declared, StrategyRange); len(res.Unchanged) != 1 {
		t.Errorf("range strategy: %+v, want pkg unchanged", res)
	}
	if res := Reconcile(resolved, declared, StrategyExact); len(res.Updated) != 1 {
		t.Errorf("exact strategy: %+v, want pkg updated", res)
	}
}

func TestReconcileExactMatch(t *testing.T) {
	res := Reconcile(
		map[string]string{"pkg": "1.2.0"},
		map[string]string{"pkg": "1.2.0"},
		StrategyExact,
	)
	if res.Unchanged["pkg"] != "1.2.0" {
		t.Errorf("result = %+v, want pkg unchanged", res)
	}
}

func TestReconcileUnparsableSpecFallsBackToExact(t *testing.T) {
	resolved := map[string]string{
		"local":  "1.0.0",
		"pinned": "2.0.0",
	}
	declared := map[string]string{
		"local":  "file:../local",
		"pinned": "2.0.0",
	}

	res := Reconcile(resolved, declared, StrategyRange)
	if _, ok := res.Updated["local"]; !ok {
		t.Errorf("result = %+v, want non-semver spec treated as updated", res)
	}
	if _, ok := res.Unchanged["pinned"]; !ok {
		t.Errorf("result = %+v, want identical strings unchanged", res)
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	res := Reconcile(nil, map[string]string{"a": "1.0.0"}, StrategyRange)
	if !res.Empty() {
		t.Errorf("result = %+v, want empty for no resolved names", res)
	}

	resolved := map[string]string{"a": "1.0.0"}
	res = Reconcile(resolved, nil, StrategyRange)
	if !maps.Equal(res.Added, resolved) {
		t.Errorf("Added = %v, want everything added against empty manifest", res.Added)
	}
}

func TestReconcilePure(t *testing.T) {
	resolved := map[string]string{"a": "2.0.0"}
	declared := map[string]string{"a": "^1.0.0"}

	Reconcile(resolved, declared, StrategyRange)

	if resolved["a"] != "2.0.0" || declared["a"] != "^1.0.0" {
		t.Error("inputs mutated")
	}
}

func TestStrategyValid(t *testing.T) {
	for _, s := range []Strategy{StrategyRange, StrategyExact} {
		if !s.Valid() {
			t.Errorf("%q reported invalid", s)
		}
	}
	if Strategy("loose").Valid() {
		t.Error("unknown strategy reported valid")
	}
}
