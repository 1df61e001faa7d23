package walk

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
)

type Type int

const (
	Auto Type = iota
	Git
	Filesystem
)

func (t Type) String() string {
	switch t {
	case Auto:
		return "auto"
	case Git:
		return "git"
	case Filesystem:
		return "filesystem"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType returns the walk type with the given name.
func ParseType(name string) (Type, error) {
	for _, t := range []Type{Auto, Git, Filesystem} {
		if t.String() == name {
			return t, nil
		}
	}

	return Auto, fmt.Errorf("unknown walk type: %s", name)
}

// File is a regular file found beneath the walk root.
// RelPath is relative to the root and always uses `/` as its separator.
type File struct {
	Path    string
	RelPath string
	Info    fs.FileInfo
}

func (f File) String() string {
	return f.Path
}

type WalkFunc func(file *File, err error) error

type Walker interface {
	Root() string
	Walk(ctx context.Context, fn WalkFunc) error
}

func New(walkerType Type, root string) (Walker, error) {
	root, err := resolvePath(root)
	if err != nil {
		return nil, err
	}

	switch walkerType {
	case Git:
		return NewGit(root)
	case Auto:
		return Detect(root)
	case Filesystem:
		return NewFilesystem(root)
	default:
		return nil, fmt.Errorf("unknown walker type: %v", walkerType)
	}
}

func Detect(root string) (Walker, error) {
	// for now, we keep it simple and try git first, filesystem second
	w, err := NewGit(root)
	if err == nil {
		return w, err
	}

	return NewFilesystem(root)
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
