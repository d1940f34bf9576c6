// Package discover lists candidate files under an input directory and drops
// the ones an earlier run already processed.
package discover

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"squeeze/internal/ledger"
	"squeeze/internal/logging"
	"squeeze/pkg/imgutil"
)

var errNotDir = errors.New("not a directory")

// Options controls a directory walk.
type Options struct {
	// Recursive descends into subdirectories; otherwise only the top level
	// of the root is listed.
	Recursive bool
	// ImagesOnly drops files whose leading bytes match no image signature.
	ImagesOnly bool
	// Exclude lists directories that are never descended into, typically the
	// output directory when it lives inside the input tree.
	Exclude []string
}

// Discover returns every regular file under root as a forward-slash path,
// in lexical order. An empty directory yields an empty slice.
func Discover(fs afero.Fs, root string, opts Options) ([]string, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "discover", Path: root, Err: errNotDir}
	}

	excluded := make([]string, 0, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			excluded = append(excluded, filepath.Clean(abs))
		}
	}
	absRoot, _ := filepath.Abs(root)
	absRoot = filepath.Clean(absRoot)

	var files []string
	keep := func(path string) {
		if opts.ImagesOnly {
			kind, err := imgutil.SniffFile(fs, path)
			if err != nil || kind == imgutil.KindUnknown {
				logging.Get().Debug().Str("path", path).Msg("skipping non-image file")
				return
			}
		}
		files = append(files, ledger.NormalizePath(path))
	}

	if !opts.Recursive {
		entries, err := afero.ReadDir(fs, root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Mode().IsRegular() {
				keep(filepath.Join(root, entry.Name()))
			}
		}
		sort.Strings(files)
		return files, nil
	}

	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			if path != root && isExcluded(path, absRoot, root, excluded) {
				return filepath.SkipDir
			}
			return nil
		}
		if !fi.Mode().IsRegular() {
			return nil
		}
		keep(path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Filter returns the paths the ledger does not know, in their original
// order. With retryFailed, paths whose earlier attempt did not compress are
// returned as well.
func Filter(paths []string, l *ledger.Ledger, retryFailed bool) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		entry, ok := l.Lookup(path)
		if !ok || (retryFailed && !entry.WasCompressed) {
			out = append(out, path)
		}
	}
	return out
}

// FilterUnprocessed returns the paths absent from the ledger.
func FilterUnprocessed(paths []string, l *ledger.Ledger) []string {
	return Filter(paths, l, false)
}

func isExcluded(path, absRoot, root string, excluded []string) bool {
	if len(excluded) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	abs := filepath.Join(absRoot, rel)
	for _, dir := range excluded {
		if IsWithin(abs, dir) {
			return true
		}
	}
	return false
}

// IsWithin reports whether path is root or lies below it.
func IsWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
