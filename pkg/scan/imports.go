package scan

import (
	"regexp"
	"strings"
)

// The extraction is regex-based rather than a full parse: module specifiers
// are always string literals in the positions matched here, and a regex
// survives the syntax errors and dialect variations (JSX, TS, decorators)
// a real parser would choke on.
var (
	// require("pkg") / require('pkg')
	requireRe = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)

	// import ... from "pkg" / export ... from "pkg", including multi-line
	// named import lists.
	fromRe = regexp.MustCompile(`\bfrom\s+['"]([^'"]+)['"]`)

	// Side-effect imports: import "pkg"
	bareImportRe = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)

	// Dynamic imports: import("pkg")
	dynImportRe = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

// ExtractImports returns every module specifier string imported by the
// given source text, in order of appearance, duplicates included.
func ExtractImports(content string) []string {
	var specs []string
	for _, re := range []*regexp.Regexp{requireRe, fromRe, bareImportRe, dynImportRe} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			specs = append(specs, m[1])
		}
	}
	return specs
}

// NormalizeModule converts a raw import specifier into the registry package
// name it resolves to. It reports false for specifiers that are not
// registry packages: relative and absolute paths, Node builtins, and URLs.
//
// Deep imports collapse to their package: "lodash/fp" -> "lodash",
// "@babel/core/lib" -> "@babel/core".
func NormalizeModule(spec string) (string, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", false
	}
	if strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "~") {
		return "", false
	}
	if strings.Contains(spec, "://") {
		return "", false
	}
	if name, ok := strings.CutPrefix(spec, "node:"); ok {
		spec = name
	}

	parts := strings.Split(spec, "/")
	var name string
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 {
			return "", false
		}
		name = parts[0] + "/" + parts[1]
	} else {
		name = parts[0]
	}

	if builtinModules[name] {
		return "", false
	}
	return name, true
}
