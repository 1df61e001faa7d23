package resolve

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/numtide/fmtrc/config"
	"github.com/numtide/fmtrc/matcher"
)

type rule struct {
	index   int
	matchFn matcher.MatchFn
	options config.Options
}

// Resolver computes the effective options for a file from a config's base options and its ordered overrides.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	root  string
	base  config.Options
	rules []rule

	log *log.Logger
}

// New compiles the overrides of cfg. Paths passed to Resolve are taken relative to root, which is typically the
// directory containing the config file. cfg is assumed to have been validated already.
func New(cfg *config.Config, root string) (*Resolver, error) {
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for root %s: %w", root, err)
		}

		root = abs
	}

	r := &Resolver{
		root:  root,
		base:  cfg.Options.Clone(),
		rules: make([]rule, 0, len(cfg.Overrides)),
		log:   log.WithPrefix("resolve"),
	}

	for idx, override := range cfg.Overrides {
		include, err := matcher.IncludeGlobs(override.Files)
		if err != nil {
			return nil, fmt.Errorf("failed to compile override %d files: %w", idx, err)
		}

		exclude, err := matcher.ExcludeGlobs(override.ExcludeFiles)
		if err != nil {
			return nil, fmt.Errorf("failed to compile override %d excludeFiles: %w", idx, err)
		}

		r.rules = append(r.rules, rule{
			index:   idx,
			matchFn: matcher.Combine([]matcher.MatchFn{include}, []matcher.MatchFn{exclude}),
			options: override.Options.Clone(),
		})
	}

	return r, nil
}

// Root returns the directory relative paths are resolved against.
func (r *Resolver) Root() string {
	return r.root
}

// Rel turns path into the relative, `/`-separated form overrides are matched against.
func (r *Resolver) Rel(path string) string {
	if filepath.IsAbs(path) && r.root != "" {
		if rel, err := filepath.Rel(r.root, path); err == nil {
			path = rel
		}
	}

	return matcher.Normalize(filepath.ToSlash(path))
}

// Matches returns the indices of the overrides which apply to path, in declaration order.
func (r *Resolver) Matches(path string) []int {
	rel := r.Rel(path)

	var indices []int

	for _, rule := range r.rules {
		if rule.matchFn(rel) == matcher.Wanted {
			indices = append(indices, rule.index)
		}
	}

	return indices
}

// Resolve returns the effective options for path: the base options with the options of every matching override
// merged over them in declaration order, so later overrides win.
func (r *Resolver) Resolve(path string) config.Options {
	rel := r.Rel(path)

	result := r.base.Clone()

	var matched []string

	for _, rule := range r.rules {
		if rule.matchFn(rel) != matcher.Wanted {
			continue
		}

		result.Merge(rule.options)

		matched = append(matched, strconv.Itoa(rule.index))
	}

	if len(matched) > 0 {
		r.log.Debugf("%s: applied overrides [%s]", rel, strings.Join(matched, " "))
	}

	return result
}
