package transcribe

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

var pageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// ListPages walks dir and returns the scan image paths in sorted order.
// A limit of 0 means no limit.
func ListPages(dir string, limit int) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if pageExtensions[strings.ToLower(filepath.Ext(path))] {
			pages = append(pages, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "transcribe: walk images dir")
	}
	sort.Strings(pages)
	if limit > 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}
