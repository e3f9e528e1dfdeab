package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"glint/internal/extract"
	"glint/internal/pipeline"
)

// extensions maps document extensions to pipeline variants.
var extensions = map[string]string{
	".gohtml": pipeline.VariantGoHTML,
	".go":     extract.VariantGo,
}

// VariantFor returns the variant of path by its extension.
func VariantFor(path string) (string, bool) {
	v, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return v, ok
}

// skipDir reports directories that never hold checked documents.
func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" || (len(name) > 1 && (name[0] == '.' || name[0] == '_'))
}

// ListDocuments expands paths into a sorted, de-duplicated list of
// documents. Files are taken as given; directories are walked for known
// extensions.
func ListDocuments(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := VariantFor(path); ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}
