package deltas

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"trunkline/internal/common"
	"trunkline/internal/sessions"
	"trunkline/pkg/errors"
)

// Reader loads deltas recorded in the current session. Reads take no lock;
// writes replace files atomically so a read sees either the old or new batch.
type Reader struct {
	repo *sessions.Repository
}

// NewReader returns a reader over repo's deltas directory
func NewReader(repo *sessions.Repository) *Reader {
	return &Reader{repo: repo}
}

// Read returns the deltas stored for path. A path with nothing recorded
// yields an empty batch.
func (r *Reader) Read(path string) ([]Delta, error) {
	file, err := common.JoinRelative(r.repo.DeltasPath(), path)
	if err != nil {
		return nil, errors.ValidationError("path", path, err.Error())
	}
	return readFile(file, path)
}

// ReadAll returns every recorded batch keyed by slash-separated relative path
func (r *Reader) ReadAll() (map[string][]Delta, error) {
	root := r.repo.DeltasPath()
	all := map[string][]Delta{}

	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && file == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || isTempFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, file)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		batch, err := readFile(file, rel)
		if err != nil {
			return err
		}
		all[rel] = batch
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to list deltas").
			WithContext("root", root)
	}

	return all, nil
}

func readFile(file, path string) ([]Delta, error) {
	data, err := os.ReadFile(file) // #nosec G304 - file is confined to the deltas directory
	if os.IsNotExist(err) {
		return []Delta{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to read deltas").
			WithContext("path", path)
	}

	deltas := []Delta{}
	if err := json.Unmarshal(data, &deltas); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to parse deltas").
			WithContext("path", path)
	}
	return deltas, nil
}

// isTempFile matches the sibling files WriteFileAtomic renames into place
func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, ".tmp-")
}
