package resolve

import (
	"testing"

	"github.com/matzehuels/depsync/pkg/errors"
)

func TestBest(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
		ok       bool
	}{
		{"highest stable", []string{"1.0.0", "1.2.0", "1.1.5"}, "1.2.0", true},
		{"prerelease excluded", []string{"1.0.0", "1.2.0", "2.0.0-beta"}, "1.2.0", true},
		{"only prereleases", []string{"1.0.0-alpha", "1.0.0-beta.2"}, "1.0.0-beta.2", true},
		{"unordered input", []string{"2.0.0", "0.1.0", "1.9.9"}, "2.0.0", true},
		{"invalid skipped", []string{"not-a-version", "1.0.0"}, "1.0.0", true},
		{"only invalid", []string{"garbage", "also bad"}, "", false},
		{"empty", nil, "", false},
		{"v prefix preserved", []string{"v1.0.0", "v1.3.0"}, "v1.3.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Best(tt.versions)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Best(%v) = (%q, %v), want (%q, %v)", tt.versions, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBestIdempotent(t *testing.T) {
	versions := []string{"1.0.0", "3.1.4", "2.7.1"}
	first, _ := Best(versions)
	second, _ := Best(versions)
	if first != second {
		t.Errorf("Best() not idempotent: %q vs %q", first, second)
	}
}

func TestSelect(t *testing.T) {
	candidates := []Candidate{
		{Name: "express", Versions: []string{"4.17.0", "4.18.2"}},
		{Name: "ghost", Versions: nil},
		{Name: "lab", Versions: []string{"1.0.0-rc.1"}},
	}

	resolved, failures := Select(candidates)

	if resolved["express"] != "4.18.2" {
		t.Errorf("express = %q, want %q", resolved["express"], "4.18.2")
	}
	if resolved["lab"] != "1.0.0-rc.1" {
		t.Errorf("lab = %q, want the lone prerelease", resolved["lab"])
	}
	if len(failures) != 1 || failures[0].Name != "ghost" {
		t.Fatalf("failures = %v, want only ghost", failures)
	}
	if !errors.Is(failures[0].Err, errors.ErrCodePackageNotFound) {
		t.Errorf("failure code = %v, want PACKAGE_NOT_FOUND", errors.GetCode(failures[0].Err))
	}
	if _, present := resolved["ghost"]; present {
		t.Error("failed candidate must not appear in resolved map")
	}
}
