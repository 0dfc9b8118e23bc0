// Package collection enumerates the source files of a GRIB collection.
package collection

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// IndexSuffix names index files. Dir never lists them, nor the temporary
// files they are written through.
const IndexSuffix = ".ncx"

// MFile is one source file.
type MFile struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Collection supplies the files of a collection.
type Collection interface {
	// Name names the collection, and by default its index file.
	Name() string
	// Files returns the files sorted by path.
	Files(ctx context.Context) ([]MFile, error)
}

// ChangedSince reports whether the files of c differ from paths, or any
// of them was modified after t.
func ChangedSince(ctx context.Context, c Collection, paths []string, t time.Time) (bool, error) {
	files, err := c.Files(ctx)
	if err != nil {
		return false, err
	}
	if len(files) != len(paths) {
		glog.V(1).Infof("collection %s: %d files, index has %d", c.Name(), len(files), len(paths))
		return true, nil
	}
	for i, f := range files {
		if f.Path != paths[i] {
			glog.V(1).Infof("collection %s: file %s not in index", c.Name(), f.Path)
			return true, nil
		}
		if f.ModTime.After(t) {
			glog.V(1).Infof("collection %s: %s modified after index", c.Name(), f.Path)
			return true, nil
		}
	}
	return false, nil
}

// Dir is the collection of files under a directory whose base names match
// a pattern.
type Dir struct {
	CollectionName string
	Root           string
	// Pattern is matched with filepath.Match against base names. Empty
	// matches every file.
	Pattern   string
	Recursive bool
}

// Name returns the collection name, defaulting to the directory name.
func (d *Dir) Name() string {
	if d.CollectionName != "" {
		return d.CollectionName
	}
	return filepath.Base(filepath.Clean(d.Root))
}

// Files walks the directory.
func (d *Dir) Files(ctx context.Context) ([]MFile, error) {
	if d.Pattern != "" {
		if _, err := filepath.Match(d.Pattern, ""); err != nil {
			return nil, errors.Wrapf(err, "collection pattern %q", d.Pattern)
		}
	}
	var out []MFile
	err := filepath.WalkDir(d.Root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			if path != d.Root && !d.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !e.Type().IsRegular() || strings.Contains(e.Name(), IndexSuffix) {
			return nil
		}
		if d.Pattern != "" {
			if ok, _ := filepath.Match(d.Pattern, e.Name()); !ok {
				return nil
			}
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		out = append(out, MFile{Path: path, ModTime: info.ModTime(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", d.Root)
	}
	sortFiles(out)
	return out, nil
}

// List is a collection of named files.
type List struct {
	CollectionName string
	Paths          []string
}

// Name returns the collection name.
func (l *List) Name() string { return l.CollectionName }

// Files stats each file.
func (l *List) Files(ctx context.Context) ([]MFile, error) {
	out := make([]MFile, 0, len(l.Paths))
	for _, p := range l.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		out = append(out, MFile{Path: p, ModTime: info.ModTime(), Size: info.Size()})
	}
	sortFiles(out)
	return out, nil
}

func sortFiles(files []MFile) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}

// Paths returns the paths of files.
func Paths(files []MFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
