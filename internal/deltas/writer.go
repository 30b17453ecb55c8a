package deltas

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"trunkline/internal/common"
	"trunkline/internal/logging"
	"trunkline/internal/sessions"
	"trunkline/pkg/errors"
)

// Writer records delta batches into the current session
type Writer struct {
	repo *sessions.Repository
}

// NewWriter makes sure a session exists before anything is recorded
func NewWriter(repo *sessions.Repository) (*Writer, error) {
	if _, err := repo.GetOrCreateCurrentSession(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "failed to create session")
	}
	return &Writer{repo: repo}, nil
}

// Write replaces the deltas stored for path, a path relative to the session's
// deltas directory. Writes across the whole repository are serialized.
func (w *Writer) Write(path string, deltas []Delta) (err error) {
	target, err := common.JoinRelative(w.repo.DeltasPath(), path)
	if err != nil {
		return errors.ValidationError("path", path, err.Error())
	}

	if err := w.repo.Lock(); err != nil {
		return err
	}
	defer func() {
		if uerr := w.repo.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	if deltas == nil {
		deltas = []Delta{}
	}
	raw, err := json.Marshal(deltas)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to serialize deltas").
			WithContext("path", path)
	}

	if err := common.WriteFileAtomic(target, raw, common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to write deltas").
			WithContext("path", path)
	}

	logging.Logger.WithFields(logrus.Fields{
		"project": w.repo.ProjectID(),
		"path":    path,
	}).Info("wrote deltas")

	return nil
}
