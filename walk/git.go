package walk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

type gitWalker struct {
	root string
	// prefix is the root relative to the top of the worktree, empty when they are the same
	prefix string
	log    *log.Logger
	repo   *git.Repository
}

func (g gitWalker) Root() string {
	return g.root
}

func (g gitWalker) Walk(ctx context.Context, fn WalkFunc) error {
	idx, err := g.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("failed to open git index: %w", err)
	}

	for _, entry := range idx.Entries {
		if err = ctx.Err(); err != nil {
			return err
		}

		// we only want regular files, not directories, symlinks or submodules
		if entry.Mode == filemode.Dir || entry.Mode == filemode.Symlink || entry.Mode == filemode.Submodule {
			continue
		}

		// index entries are relative to the top of the worktree and always use `/`
		relPath := entry.Name
		if g.prefix != "" {
			if !strings.HasPrefix(relPath, g.prefix+"/") {
				continue
			}

			relPath = strings.TrimPrefix(relPath, g.prefix+"/")
		}

		path := filepath.Join(g.root, filepath.FromSlash(relPath))

		info, err := os.Lstat(path)
		if os.IsNotExist(err) {
			// the underlying file might have been removed without the change being staged yet
			g.log.Warnf("Path %s is in the index but appears to have been removed from the filesystem", path)

			continue
		} else if err != nil {
			err = fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if err = fn(&File{Path: path, RelPath: relPath, Info: info}, err); err != nil {
			return err
		}
	}

	return nil
}

func NewGit(root string) (Walker, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open git worktree: %w", err)
	}

	top, err := resolvePath(worktree.Filesystem.Root())
	if err != nil {
		return nil, err
	}

	prefix, err := filepath.Rel(top, root)
	if err != nil {
		return nil, fmt.Errorf("failed to determine %s relative to the worktree %s: %w", root, top, err)
	}

	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		prefix = ""
	} else if strings.HasPrefix(prefix, "../") {
		return nil, fmt.Errorf("path %s is outside of the worktree %s", root, top)
	}

	return gitWalker{
		root:   root,
		prefix: prefix,
		log:    log.WithPrefix("walk[git]"),
		repo:   repo,
	}, nil
}
