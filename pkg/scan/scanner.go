// Package scan discovers module dependencies in a JavaScript/TypeScript
// source tree.
//
// The scanner walks a directory, reads every source file, and extracts the
// module specifiers it imports (require calls, static and dynamic imports,
// re-exports). Relative paths and Node builtins are filtered out, deep
// imports are collapsed to their package name, and the result is
// deduplicated across the whole tree.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/depsync/pkg/errors"
)

// Source file extensions considered by the scanner.
var sourceExts = map[string]bool{
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".ts":  true,
	".tsx": true,
}

// Directories never descended into. Installed dependencies and VCS
// metadata would otherwise dominate the scan.
var excludedDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"jspm_packages":    true,
	".git":             true,
	".hg":              true,
	".svn":             true,
	"dist":             true,
	"build":            true,
	"coverage":         true,
	".next":            true,
	".cache":           true,
}

// Options configures a scan.
type Options struct {
	// ExcludeDirs adds directory names to the built-in exclusion set.
	ExcludeDirs []string

	// Ignore drops specific module names from the result.
	Ignore []string

	// Logger receives warnings for skipped unreadable files (optional).
	Logger func(string, ...any)
}

// Scan walks the tree rooted at root and returns the sorted, deduplicated
// set of module names imported by its source files.
//
// A missing or unreadable root is fatal and reported with code
// INVALID_PATH or SCAN_FAILED. Individual unreadable files are skipped
// with a warning. Traversal is lexical, so results are deterministic for
// an unchanged tree.
func Scan(root string, opts Options) ([]string, error) {
	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "source root %s is not readable", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "source root %s is not a directory", root)
	}

	excluded := make(map[string]bool, len(excludedDirs)+len(opts.ExcludeDirs))
	for dir := range excludedDirs {
		excluded[dir] = true
	}
	for _, dir := range opts.ExcludeDirs {
		excluded[dir] = true
	}

	ignored := make(map[string]bool, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignored[name] = true
	}

	seen := make(map[string]bool)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logf("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && excluded[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			logf("skipping %s: %v", path, readErr)
			return nil
		}

		for _, spec := range ExtractImports(string(content)) {
			if name, ok := NormalizeModule(spec); ok && !ignored[name] {
				seen[name] = true
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.ErrCodeScanFailed, walkErr, "walking %s failed", root)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
