package walk

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/charmbracelet/log"
)

type filesystemWalker struct {
	root string
	log  *log.Logger
}

func (f filesystemWalker) Root() string {
	return f.root
}

func (f filesystemWalker) Walk(ctx context.Context, fn WalkFunc) error {
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return fn(&File{Path: path}, err)
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		// we only want regular files, not symlinks or devices
		if !d.Type().IsRegular() {
			f.log.Debugf("skipping %s: not a regular file", path)

			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fn(&File{Path: path}, fmt.Errorf("failed to stat %s: %w", path, err))
		}

		relPath, err := filepath.Rel(f.root, path)
		if err != nil {
			return fmt.Errorf("failed to determine a relative path for %s: %w", path, err)
		}

		return fn(&File{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Info:    info,
		}, nil)
	}

	return filepath.WalkDir(f.root, walkFn)
}

func NewFilesystem(root string) (Walker, error) {
	return filesystemWalker{
		root: root,
		log:  log.WithPrefix("walk[filesystem]"),
	}, nil
}
