package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/numtide/fmtrc/cache"
	"github.com/numtide/fmtrc/config"
	"github.com/numtide/fmtrc/resolve"
	"github.com/numtide/fmtrc/stats"
	"github.com/numtide/fmtrc/walk"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	BatchSize = 1024
)

var ErrConfigNotFound = errors.New("failed to find config file")

func Run(settings *config.Settings, statz *stats.Stats, cmd *cobra.Command, paths []string) error {
	cmd.SilenceUsage = true

	configFile, err := findConfig(settings)
	if err != nil {
		return err
	}

	if settings.FindConfigPath {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), configFile)

		return err //nolint:wrapcheck
	}

	log.Debugf("using config file: %s", configFile)

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if settings.CheckOnly {
		log.Infof("%s is valid", configFile)

		return nil
	}

	// relative paths are resolved against the directory containing the config file, unless told otherwise
	treeRoot := settings.TreeRoot
	if treeRoot == "" {
		treeRoot = filepath.Dir(cfg.Path)
	}

	treeRoot, err = resolvePath(treeRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve tree root: %w", err)
	}

	log.Debugf("tree root: %s", treeRoot)

	if settings.ClearCache {
		if err = cache.Remove(treeRoot); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	// create an app context and listen for shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		exit := make(chan os.Signal, 1)
		signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
		<-exit
		cancel()
	}()

	r := &runner{
		settings: settings,
		statz:    statz,
		treeRoot: treeRoot,
		out:      cmd.OutOrStdout(),
	}

	if err = r.run(ctx, cfg, paths); err != nil {
		return err
	}

	if !settings.Watch {
		return nil
	}

	return config.Watch(ctx, cfg.Path, func(cfg *config.Config, err error) { //nolint:wrapcheck
		if err != nil {
			log.Errorf("failed to reload config: %v", err)

			return
		}

		if err = r.run(ctx, cfg, paths); err != nil {
			log.Errorf("failed to resolve: %v", err)
		}
	})
}

func findConfig(settings *config.Settings) (string, error) {
	// use the path specified by the flag
	configFile := settings.ConfigFile

	// fallback to env
	if configFile == "" {
		configFile = os.Getenv("FMTRC_CONFIG")
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return "", fmt.Errorf("%w: %w", ErrConfigNotFound, err)
		}

		return configFile, nil
	}

	// search up from the working directory
	configFile, _, err := config.FindUp(settings.WorkingDir, config.FileNames...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConfigNotFound, err)
	}

	return configFile, nil
}

type runner struct {
	settings *config.Settings
	statz    *stats.Stats
	treeRoot string
	out      io.Writer
}

func (r *runner) run(ctx context.Context, cfg *config.Config, paths []string) error {
	// each run reports on its own work, including re-runs triggered by watching
	r.statz.Reset()

	resolver, err := resolve.New(cfg, r.treeRoot)
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}

	// open the cache if configured
	var c *cache.Cache

	if !r.settings.NoCache {
		if c, err = cache.Open(r.treeRoot); err != nil {
			// if we can't open the cache, we log a warning and fallback to no cache
			log.Warnf("failed to open cache: %v", err)

			c = nil
		} else {
			defer func() {
				if err := c.Close(); err != nil {
					log.Errorf("failed to close cache: %v", err)
				}
			}()
		}
	}

	// create an overall error group for executing high level tasks concurrently
	eg, ctx := errgroup.WithContext(ctx)

	// we use a multiple of batch size here as a rudimentary concurrency optimization based on the host machine
	filesCh := make(chan *walk.File, BatchSize*runtime.NumCPU())

	results := make(map[string]config.Options)

	// start concurrent processing tasks in reverse order
	eg.Go(resolveFiles(resolver, c, cfg.Digest, r.statz, filesCh, results))
	eg.Go(walkFiles(ctx, r.settings.Walk, r.treeRoot, paths, r.statz, filesCh))

	if err = eg.Wait(); err != nil {
		return err //nolint:wrapcheck
	}

	output := make(map[string]config.Effective, len(results))
	for path, options := range results {
		output[path] = options.Effective()
	}

	if err = config.EncodeValue(r.out, config.Format(r.settings.Output), output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if log.GetLevel() <= log.InfoLevel {
		r.statz.Print(os.Stderr)
	}

	return nil
}

func walkFiles(
	ctx context.Context,
	walkType string,
	treeRoot string,
	paths []string,
	statz *stats.Stats,
	filesCh chan<- *walk.File,
) func() error {
	return func() error {
		// close the files channel when we're done walking
		defer close(filesCh)

		walkerType, err := walk.ParseType(walkType)
		if err != nil {
			return fmt.Errorf("invalid walk type: %w", err)
		}

		seen := make(map[string]bool)

		emit := func(file *walk.File) error {
			if seen[file.RelPath] {
				return nil
			}

			seen[file.RelPath] = true

			select {
			case <-ctx.Done():
				return ctx.Err()
			case filesCh <- file:
				statz.Add(stats.Traversed, 1)

				return nil
			}
		}

		// explicit files are emitted directly, directories restrict the walk
		var dirs []string

		for _, path := range paths {
			file, err := lookup(treeRoot, path)
			if err != nil {
				return err
			}

			if file.Info.IsDir() {
				dirs = append(dirs, file.RelPath)
			} else if err = emit(file); err != nil {
				return err
			}
		}

		if len(paths) > 0 && len(dirs) == 0 {
			return nil
		}

		walker, err := walk.New(walkerType, treeRoot)
		if err != nil {
			return fmt.Errorf("failed to create walker: %w", err)
		}

		return walker.Walk(ctx, func(file *walk.File, err error) error { //nolint:wrapcheck
			if err != nil {
				return fmt.Errorf("failed to walk %s: %w", file.Path, err)
			}

			if len(dirs) > 0 && !withinAny(file.RelPath, dirs) {
				return nil
			}

			return emit(file)
		})
	}
}

func resolveFiles(
	resolver *resolve.Resolver,
	c *cache.Cache,
	digest []byte,
	statz *stats.Stats,
	filesCh <-chan *walk.File,
	results map[string]config.Options,
) func() error {
	return func() error {
		batch := make(map[string]config.Options, BatchSize)

		flush := func() error {
			if c == nil || len(batch) == 0 {
				return nil
			}

			err := c.Update(digest, batch)
			clear(batch)

			return err //nolint:wrapcheck
		}

		for file := range filesCh {
			if c != nil {
				options, ok, err := c.Get(file.RelPath, digest)
				if err != nil {
					return fmt.Errorf("failed to read cache entry for %s: %w", file.RelPath, err)
				} else if ok {
					statz.Add(stats.Cached, 1)

					results[file.RelPath] = *options

					continue
				}
			}

			if len(resolver.Matches(file.RelPath)) > 0 {
				statz.Add(stats.Matched, 1)
			}

			options := resolver.Resolve(file.RelPath)
			statz.Add(stats.Resolved, 1)

			results[file.RelPath] = options
			batch[file.RelPath] = options

			if len(batch) == BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		return flush()
	}
}

// lookup stats path, which must be inside the tree root, and returns it with a path relative to the root.
func lookup(treeRoot string, path string) (*walk.File, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel(treeRoot, resolved)
	if err != nil {
		return nil, fmt.Errorf("error computing relative path from %s to %s: %w", treeRoot, resolved, err)
	}

	relPath = filepath.ToSlash(relPath)

	if relPath == ".." || strings.HasPrefix(relPath, "../") {
		return nil, fmt.Errorf("path %s not inside the tree root %s", path, treeRoot)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", resolved, err)
	}

	if relPath == "." {
		relPath = ""
	}

	return &walk.File{
		Path:    resolved,
		RelPath: relPath,
		Info:    info,
	}, nil
}

func withinAny(relPath string, dirs []string) bool {
	for _, dir := range dirs {
		if dir == "" || strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}

	return false
}

// Resolve a path to an absolute path, resolving any symlinks along the way.
func resolvePath(path string) (string, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("error computing absolute path of %s: %w", path, err)
	}

	resolvedPath, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		return "", fmt.Errorf("path %s not found: %w", absolutePath, err)
	}

	return resolvedPath, nil
}
