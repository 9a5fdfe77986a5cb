package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// List expands path into the files it names. A regular file is returned
// as is. A directory yields its direct entries whose name ends in ext
// (case-insensitive), sorted by name; subdirectories are not walked. A
// directory without matches yields an empty slice and no error.
func List(path, ext string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), strings.ToLower(ext)) {
			continue
		}
		out = append(out, filepath.Join(path, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Sources wraps each path in a Local source.
func Sources(paths []string) []*Local {
	out := make([]*Local, len(paths))
	for i, p := range paths {
		out[i] = NewLocal(p)
	}
	return out
}
