package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blegdams/journal-cli/internal/model"
)

// ResolutionError marks an image reference that could not be located
// under the images root. The affected record is skipped; the session
// continues.
type ResolutionError struct {
	FileName string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("dataset: image %q not found under images root", e.FileName)
}

// ImageIndex maps image basenames to their paths under an images root.
// Subdirectories are permitted; the first occurrence of a basename wins.
type ImageIndex struct {
	root  string
	paths map[string]string
}

// BuildImageIndex walks root recursively and indexes every regular file
// by basename.
func BuildImageIndex(root string) (*ImageIndex, error) {
	idx := &ImageIndex{root: root, paths: make(map[string]string)}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if _, seen := idx.paths[name]; seen {
			zap.L().Debug("duplicate image basename, keeping first",
				zap.String("name", name),
				zap.String("ignored", path),
			)
			return nil
		}
		idx.paths[name] = path
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: walk images root %s", root)
	}
	return idx, nil
}

// Len returns the number of indexed images.
func (ix *ImageIndex) Len() int { return len(ix.paths) }

// Resolve returns the on-disk path for a record's image reference.
func (ix *ImageIndex) Resolve(rec model.TranscriptionRecord) (string, error) {
	if rec.FileName == "" {
		return "", &MalformedRecordError{Reason: "missing file_name"}
	}
	path, ok := ix.paths[filepath.Base(rec.FileName)]
	if !ok {
		return "", &ResolutionError{FileName: rec.FileName}
	}
	return path, nil
}
