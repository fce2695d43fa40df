package ingest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/MrSnakeDoc/leasetrail/internal/utils"
)

// Expand resolves paths into the list of files to read. Directories are
// walked recursively and contribute their regular files in lexical order;
// hidden entries are skipped. The given order of paths is preserved.
func Expand(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return files, nil
}

// Open opens a log file, transparently decompressing rotated .gz and .zst
// files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			utils.Close(f)
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &utils.StackedReader{Reader: zr, Layers: []io.Closer{zr, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			utils.Close(f)
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		dec := zr.IOReadCloser()
		return &utils.StackedReader{Reader: dec, Layers: []io.Closer{dec, f}}, nil
	default:
		return f, nil
	}
}
