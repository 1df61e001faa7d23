package cmd_test

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/numtide/fmtrc/cmd"
	"github.com/numtide/fmtrc/cmd/resolve"
	"github.com/numtide/fmtrc/config"
	"github.com/numtide/fmtrc/stats"
	"github.com/numtide/fmtrc/test"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// setup copies the examples into a temp dir, changes into it and isolates the cache.
func setup(t *testing.T) string {
	t.Helper()

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	tempDir := test.TempExamples(t)
	test.ChangeWorkDir(t, tempDir)

	return tempDir
}

func withJSON(t *testing.T, fn func(map[string]config.Options)) option {
	return withOutput(func(out []byte) {
		results := make(map[string]config.Options)
		require.NoError(t, json.Unmarshal(out, &results), "output should be json")
		fn(results)
	})
}

func TestResolveExamples(t *testing.T) {
	as := require.New(t)

	setup(t)

	fmtrc(t,
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Traversed: 13,
			stats.Resolved:  13,
			stats.Matched:   9,
			stats.Cached:    0,
		}),
		withJSON(t, func(results map[string]config.Options) {
			paths := make([]string, 0, len(results))
			for path := range results {
				paths = append(paths, path)
			}

			as.ElementsMatch(test.ExamplesPaths, paths)

			// matches no rule
			readme := results["readme.md"]
			as.Equal(4, *readme.TabWidth)
			as.Equal(80, *readme.PrintWidth)
			as.Equal(config.TrailingCommaAll, *readme.TrailingComma)
			as.Equal([]string{"prettier-plugin-sh"}, readme.Plugins)
			as.Nil(readme.Parser)

			as.Equal("typescript", *results["app.ts"].Parser)
			as.Equal("typescript", *results["component.tsx"].Parser)

			as.Equal(config.TrailingCommaNone, *results["data.json"].TrailingComma)
			as.Equal(4, *results["data.json"].TabWidth)

			// the later package rule wins over the base tab width
			as.Equal(config.TrailingCommaNone, *results["package.json"].TrailingComma)
			as.Equal(2, *results["package.json"].TabWidth)

			as.Equal(2, *results["config/ci.yml"].TabWidth)
			as.Equal(config.TrailingCommaNone, *results["nested/deep/tsconfig.json"].TrailingComma)
		}),
	)
}

func TestOutputFormats(t *testing.T) {
	as := require.New(t)

	setup(t)

	check := func(results map[string]config.Options) {
		as.Len(results, len(test.ExamplesPaths))
		as.Equal("typescript", *results["app.ts"].Parser)
		as.Equal(2, *results["package.json"].TabWidth)
	}

	fmtrc(t,
		withArgs("-o", "yaml"),
		withNoError(t),
		withOutput(func(out []byte) {
			results := make(map[string]config.Options)
			as.NoError(yaml.Unmarshal(out, &results))
			check(results)
		}),
	)

	fmtrc(t,
		withArgs("--output", "toml"),
		withNoError(t),
		withOutput(func(out []byte) {
			results := make(map[string]config.Options)
			_, err := toml.Decode(string(out), &results)
			as.NoError(err)
			check(results)
		}),
	)

	// env
	t.Setenv("FMTRC_OUTPUT", "yaml")

	fmtrc(t,
		withNoError(t),
		withOutput(func(out []byte) {
			results := make(map[string]config.Options)
			as.NoError(yaml.Unmarshal(out, &results))
			check(results)
		}),
	)

	fmtrc(t,
		withArgs("-o", "xml"),
		withError(func(err error) {
			as.ErrorContains(err, "unsupported output format: xml")
		}),
	)
}

func TestCache(t *testing.T) {
	as := require.New(t)

	tempDir := setup(t)

	// first run populates the cache
	fmtrc(t,
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Traversed: 13,
			stats.Resolved:  13,
			stats.Cached:    0,
		}),
	)

	// second run is served from the cache
	fmtrc(t,
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Traversed: 13,
			stats.Resolved:  0,
			stats.Cached:    13,
		}),
		withJSON(t, func(results map[string]config.Options) {
			as.Equal("typescript", *results["app.ts"].Parser)
			as.Equal(2, *results["package.json"].TabWidth)
		}),
	)

	// no cache
	fmtrc(t,
		withArgs("--no-cache"),
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Resolved: 13,
			stats.Cached:   0,
		}),
	)

	// clearing the cache forces everything to be resolved again
	fmtrc(t,
		withArgs("-c"),
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Resolved: 13,
			stats.Cached:   0,
		}),
	)

	// changing the config invalidates every entry
	cfg, err := config.Load(filepath.Join(tempDir, ".fmtrc.toml"))
	as.NoError(err)

	cfg.TabWidth = config.Ptr(8)

	fmtrc(t,
		withConfig(filepath.Join(tempDir, ".fmtrc.toml"), cfg),
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Resolved: 13,
			stats.Cached:   0,
		}),
		withJSON(t, func(results map[string]config.Options) {
			as.Equal(8, *results["readme.md"].TabWidth)
			as.Equal(2, *results["package.json"].TabWidth)
		}),
	)
}

func TestPathsArg(t *testing.T) {
	as := require.New(t)

	setup(t)

	// files and directories
	fmtrc(t,
		withArgs("app.ts", "config", "./nested/deep/tsconfig.json"),
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Traversed: 4,
			stats.Resolved:  4,
		}),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, 4)
			as.Contains(results, "app.ts")
			as.Contains(results, "config/ci.yml")
			as.Contains(results, "config/settings.yaml")
			as.Contains(results, "nested/deep/tsconfig.json")
		}),
	)

	// the same file twice is only resolved once
	fmtrc(t,
		withArgs("--no-cache", "app.ts", "app.ts"),
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Traversed: 1,
			stats.Resolved:  1,
		}),
	)

	// missing path
	fmtrc(t,
		withArgs("missing.ts"),
		withError(func(err error) {
			as.ErrorContains(err, "not found")
		}),
	)

	// outside the tree root
	fmtrc(t,
		withArgs(t.TempDir()),
		withError(func(err error) {
			as.ErrorContains(err, "not inside the tree root")
		}),
	)
}

func TestTreeRoot(t *testing.T) {
	as := require.New(t)

	tempDir := setup(t)

	// paths are relative to the tree root rather than the config file
	fmtrc(t,
		withArgs("--tree-root", "config"),
		withNoError(t),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, 2)

			// *.yml matches the base name wherever the file lives
			as.Equal(2, *results["ci.yml"].TabWidth)
			as.Equal(2, *results["settings.yaml"].TabWidth)
		}),
	)

	t.Setenv("FMTRC_TREE_ROOT", filepath.Join(tempDir, "nested"))

	fmtrc(t,
		withNoError(t),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, 1)
			as.Equal(config.TrailingCommaNone, *results["deep/tsconfig.json"].TrailingComma)
		}),
	)
}

func TestChangeWorkingDirectory(t *testing.T) {
	as := require.New(t)

	tempDir := setup(t)

	// the config file is found by searching up from the working directory
	fmtrc(t,
		withArgs("-C", filepath.Join(tempDir, "nested", "deep"), "--find-config-path"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.Equal(filepath.Join(tempDir, ".fmtrc.toml"), strings.TrimSpace(string(out)))
		}),
	)

	// the tree root is still the directory of the config file
	fmtrc(t,
		withArgs("-C", filepath.Join(tempDir, "nested", "deep")),
		withNoError(t),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, len(test.ExamplesPaths))
		}),
	)

	t.Setenv("FMTRC_WORKING_DIR", filepath.Join(tempDir, "docs"))

	fmtrc(t,
		withArgs("--find-config-path"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.Equal(filepath.Join(tempDir, ".fmtrc.toml"), strings.TrimSpace(string(out)))
		}),
	)
}

func TestConfigFile(t *testing.T) {
	as := require.New(t)

	tempDir := setup(t)

	// doesn't match the default names, so it can only be used explicitly
	alt := filepath.Join(tempDir, "alt.fmtrc.yaml")
	as.NoError(os.WriteFile(alt, []byte("tabWidth: 3\n"), 0o600))

	check := func(results map[string]config.Options) {
		as.Equal(3, *results["readme.md"].TabWidth)
		as.Nil(results["app.ts"].Parser)
		as.NotNil(results["app.ts"].Plugins)
		as.Empty(results["app.ts"].Plugins)
	}

	fmtrc(t,
		withArgs("--config-file", alt),
		withNoError(t),
		withJSON(t, check),
	)

	// no plugins configured, yet the output still lists them
	fmtrc(t,
		withArgs("--config-file", alt, "--output", "yaml", "app.ts"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.Contains(string(out), "plugins: []")
		}),
	)

	t.Setenv("FMTRC_CONFIG", alt)

	fmtrc(t, withNoError(t), withJSON(t, check))

	fmtrc(t,
		withArgs("--config-file", filepath.Join(tempDir, "missing.toml")),
		withError(func(err error) {
			as.ErrorIs(err, resolve.ErrConfigNotFound)
		}),
	)
}

func TestConfigNotFound(t *testing.T) {
	as := require.New(t)

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	test.ChangeWorkDir(t, t.TempDir())

	fmtrc(t,
		withError(func(err error) {
			as.ErrorIs(err, resolve.ErrConfigNotFound)
		}),
	)
}

func TestCheck(t *testing.T) {
	as := require.New(t)

	tempDir := setup(t)

	fmtrc(t,
		withArgs("--check"),
		withNoError(t),
		withStats(t, map[stats.Type]int{
			stats.Traversed: 0,
		}),
		withOutput(func(out []byte) {
			as.Empty(out)
		}),
	)

	// make the config invalid
	configPath := filepath.Join(tempDir, ".fmtrc.toml")

	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	as.NoError(err)
	_, err = f.WriteString("\n[[overrides]]\nfiles = [\"*.md\"]\n\n[overrides.options]\nproseWrap = \"sometimes\"\n")
	as.NoError(err)
	as.NoError(f.Close())

	for _, args := range [][]string{{"--check"}, {}} {
		fmtrc(t,
			withArgs(args...),
			withError(func(err error) {
				as.ErrorIs(err, config.ErrInvalidConfig)
				as.ErrorContains(err, `overrides[6].options.proseWrap = "sometimes"`)
			}),
			withStats(t, map[stats.Type]int{
				stats.Traversed: 0,
			}),
		)
	}

	// flags which exit early can't be combined with watching
	fmtrc(t,
		withArgs("--check", "--watch"),
		withError(func(err error) {
			as.ErrorContains(err, "none of the others can be")
		}),
	)
}

func TestInit(t *testing.T) {
	as := require.New(t)

	tempDir := t.TempDir()
	test.ChangeWorkDir(t, tempDir)

	fmtrc(t,
		withArgs("--init"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.Contains(string(out), "Generated .fmtrc.toml")
		}),
	)

	// the generated file is valid
	cfg, err := config.Load(filepath.Join(tempDir, ".fmtrc.toml"))
	as.NoError(err)
	as.Len(cfg.Overrides, 2)

	// never overwritten
	fmtrc(t,
		withArgs("-i"),
		withError(func(err error) {
			as.ErrorContains(err, ".fmtrc.toml already exists")
		}),
	)
}

func TestGit(t *testing.T) {
	as := require.New(t)

	tempDir := setup(t)

	run := func(args ...string) {
		c := exec.Command("git", args...)
		c.Dir = tempDir
		out, err := c.CombinedOutput()
		as.NoError(err, "git %v failed: %s", args, out)
	}

	run("init")
	run("add", "app.ts", "data.json", "config")

	// only tracked files are resolved
	fmtrc(t,
		withNoError(t),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, 4)
			as.Contains(results, "app.ts")
			as.Contains(results, "data.json")
			as.Contains(results, "config/ci.yml")
			as.Contains(results, "config/settings.yaml")
		}),
	)

	// unless the filesystem is walked
	fmtrc(t,
		withArgs("--walk", "filesystem"),
		withNoError(t),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, len(test.ExamplesPaths))
		}),
	)

	// untracked files can still be requested explicitly
	fmtrc(t,
		withArgs("--walk", "git", "readme.md"),
		withNoError(t),
		withJSON(t, func(results map[string]config.Options) {
			as.Len(results, 1)
			as.Contains(results, "readme.md")
		}),
	)

	fmtrc(t,
		withArgs("--walk", "jujutsu"),
		withError(func(err error) {
			as.ErrorContains(err, "unknown walk type: jujutsu")
		}),
	)
}

func TestVerbosity(t *testing.T) {
	as := require.New(t)

	setup(t)

	// info level prints the stats summary after the output
	fmtrc(t,
		withArgs("-v"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.Contains(string(out), "traversed 13 files")
			as.Contains(string(out), "resolved 13 files")
			as.Contains(string(out), "matched 9 files to overrides")
		}),
	)

	// debug level shows which rules applied
	fmtrc(t,
		withArgs("-vv", "--no-cache", "package.json"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.Contains(string(out), "package.json: applied overrides [2 3 5]")
		}),
	)

	// quiet suppresses the summary
	fmtrc(t,
		withArgs("-v", "--quiet"),
		withNoError(t),
		withOutput(func(out []byte) {
			as.NotContains(string(out), "traversed")
		}),
	)
}

type options struct {
	args []string

	config struct {
		path  string
		value *config.Config
	}

	assertOut   func([]byte)
	assertError func(error)
	assertStats func(*stats.Stats)
}

type option func(*options)

func withArgs(args ...string) option {
	return func(o *options) {
		o.args = args
	}
}

func withConfig(path string, cfg *config.Config) option {
	return func(o *options) {
		o.config.path = path
		o.config.value = cfg
	}
}

func withStats(t *testing.T, expected map[stats.Type]int) option {
	t.Helper()

	return func(o *options) {
		o.assertStats = func(s *stats.Stats) {
			for k, v := range expected {
				require.Equal(t, v, s.Value(k), k.String())
			}
		}
	}
}

func withError(fn func(error)) option {
	return func(o *options) {
		o.assertError = fn
	}
}

func withNoError(t *testing.T) option {
	t.Helper()

	return func(o *options) {
		o.assertError = func(err error) {
			require.NoError(t, err)
		}
	}
}

func withOutput(fn func([]byte)) option {
	return func(o *options) {
		o.assertOut = fn
	}
}

func fmtrc(
	t *testing.T,
	opt ...option,
) {
	t.Helper()

	// build options
	opts := &options{}
	for _, option := range opt {
		option(opts)
	}

	// default args if nil
	// we must pass an empty array otherwise cobra with use os.Args[1:]
	args := opts.args
	if args == nil {
		args = []string{}
	}

	// write config
	if opts.config.value != nil {
		test.WriteConfig(t, opts.config.path, opts.config.value)
	}

	t.Logf("fmtrc %s", strings.Join(args, " "))

	tempDir := t.TempDir()
	tempOut := test.TempFile(t, tempDir, "combined_output", nil)

	// capture standard outputs before swapping them
	stdout := os.Stdout
	stderr := os.Stderr

	// swap them temporarily
	os.Stdout = tempOut
	os.Stderr = tempOut

	log.SetOutput(tempOut)

	defer func() {
		// swap outputs back
		os.Stdout = stdout
		os.Stderr = stderr
		log.SetOutput(stderr)
	}()

	// run the command
	root, statz := cmd.NewRoot()

	root.SetArgs(args)
	root.SetOut(tempOut)
	root.SetErr(io.Discard)

	// execute the command
	cmdErr := root.Execute()

	// reset and read the temporary output
	if _, resetErr := tempOut.Seek(0, 0); resetErr != nil {
		t.Fatal(fmt.Errorf("failed to reset temp output for reading: %w", resetErr))
	}

	out, readErr := io.ReadAll(tempOut)
	if readErr != nil {
		t.Fatal(fmt.Errorf("failed to read temp output: %w", readErr))
	}

	t.Log("\n" + string(out))

	if opts.assertStats != nil {
		opts.assertStats(statz)
	}

	if opts.assertOut != nil {
		opts.assertOut(out)
	}

	if opts.assertError != nil {
		opts.assertError(cmdErr)
	}
}
