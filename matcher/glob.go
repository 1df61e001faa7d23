package matcher

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

const separator = '/'

// Globs is a compiled set of patterns. A path matches when any of the patterns matches it.
//
// Patterns are matched the way the formatter matches its override patterns:
//   - `*` and `?` stay within a path segment, `**` crosses segments;
//   - a pattern without a `/` is matched against the base name of the path;
//   - `**/` also matches zero directories, so `**/*.json` matches `data.json` and `a/**/b` matches `a/b`.
type Globs struct {
	patterns []string
	base     []glob.Glob
	full     []glob.Glob
}

// CompileGlobs compiles patterns, failing on the first pattern which is malformed.
func CompileGlobs(patterns []string) (*Globs, error) {
	g := &Globs{patterns: patterns}

	for _, pattern := range patterns {
		trimmed := strings.TrimPrefix(pattern, "./")
		if trimmed == "" {
			return nil, fmt.Errorf("failed to compile pattern '%v': pattern is empty", pattern)
		}

		if !strings.ContainsRune(trimmed, separator) {
			compiled, err := glob.Compile(trimmed, separator)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern '%v': %w", pattern, err)
			}

			g.base = append(g.base, compiled)

			continue
		}

		for _, variant := range expand(strings.TrimPrefix(trimmed, "/")) {
			compiled, err := glob.Compile(variant, separator)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern '%v': %w", pattern, err)
			}

			g.full = append(g.full, compiled)
		}
	}

	return g, nil
}

// expand returns pattern plus the variants in which `**/` stands for zero directories.
func expand(pattern string) []string {
	variants := []string{pattern}

	if rest, ok := strings.CutPrefix(pattern, "**/"); ok && rest != "" {
		variants = append(variants, expand(rest)...)
	}

	if strings.Contains(pattern, "/**/") {
		variants = append(variants, expand(strings.ReplaceAll(pattern, "/**/", "/"))...)
	}

	return variants
}

// Patterns returns the patterns g was compiled from.
func (g *Globs) Patterns() []string {
	return g.patterns
}

// Empty reports whether g has no patterns, in which case it matches nothing.
func (g *Globs) Empty() bool {
	return len(g.base) == 0 && len(g.full) == 0
}

// Match reports whether p, a cleaned relative `/`-separated path, matches any pattern.
func (g *Globs) Match(p string) bool {
	if len(g.base) > 0 {
		name := path.Base(p)
		for _, compiled := range g.base {
			if compiled.Match(name) {
				return true
			}
		}
	}

	for _, compiled := range g.full {
		if compiled.Match(p) {
			return true
		}
	}

	return false
}

// IncludeGlobs returns a MatchFn which wants any path matching one of patterns.
func IncludeGlobs(patterns []string) (MatchFn, error) {
	return globMatchFn(patterns, Wanted)
}

// ExcludeGlobs returns a MatchFn which rejects any path matching one of patterns.
func ExcludeGlobs(patterns []string) (MatchFn, error) {
	return globMatchFn(patterns, Unwanted)
}

func globMatchFn(patterns []string, onMatch Result) (MatchFn, error) {
	g, err := CompileGlobs(patterns)
	if err != nil {
		return nil, err
	}

	if g.Empty() {
		return noOp, nil
	}

	return func(p string) Result {
		if g.Match(p) {
			return onMatch
		}

		return Indifferent
	}, nil
}

// Normalize turns p into the form expected by matchers: `/`-separated, cleaned and without a leading `./`.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)

	return strings.TrimPrefix(p, "./")
}
