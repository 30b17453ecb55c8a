// Package sessions manages the session container that scopes recorded deltas
// and the repository-wide lock that serializes writes into it.
package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"trunkline/internal/common"
	"trunkline/internal/git"
	"trunkline/internal/logging"
	"trunkline/internal/project"
	"trunkline/pkg/errors"
)

const (
	sessionDir   = "session"
	deltasDir    = "deltas"
	metaFileName = "meta.json"
	lockFileName = ".lock"
)

// Meta describes when a session started and what HEAD was at the time
type Meta struct {
	StartTimestampMs uint64  `json:"startTimestampMs"`
	LastTimestampMs  uint64  `json:"lastTimestampMs"`
	Branch           *string `json:"branch"`
	Commit           *string `json:"commit"`
}

// Session is the container deltas are recorded into
type Session struct {
	ID   string `json:"id"`
	Meta Meta   `json:"meta"`
}

type metaFile struct {
	ID               string  `json:"id"`
	StartTimestampMs uint64  `json:"startTimestampMs"`
	LastTimestampMs  uint64  `json:"lastTimestampMs"`
	Branch           *string `json:"branch,omitempty"`
	Commit           *string `json:"commit,omitempty"`
}

// Repository is the session-managed storage of one project
type Repository struct {
	root      string
	projectID string
	git       *git.Repository

	mu   sync.Mutex
	file *os.File

	now func() time.Time
}

// Open prepares the session storage rooted at root. gitRepo is used to record
// HEAD when a session starts and may be nil.
func Open(root, projectID string, gitRepo *git.Repository) (*Repository, error) {
	if root == "" {
		return nil, errors.ValidationError("root", root, "session root must not be empty")
	}
	if err := os.MkdirAll(root, common.DirPermissionSecure); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to create session root").
			WithContext("root", root)
	}

	return &Repository{
		root:      root,
		projectID: projectID,
		git:       gitRepo,
		now:       time.Now,
	}, nil
}

// ForProject opens the session storage kept in the project's state directory
func ForProject(repo *project.Repository) (*Repository, error) {
	return Open(repo.StateDir(), repo.Project().ID, repo.Git())
}

// Root returns the storage root
func (r *Repository) Root() string {
	return r.root
}

// ProjectID returns the id of the owning project
func (r *Repository) ProjectID() string {
	return r.projectID
}

// SessionPath returns the directory of the current session
func (r *Repository) SessionPath() string {
	return filepath.Join(r.root, sessionDir)
}

// DeltasPath returns the directory deltas are written under
func (r *Repository) DeltasPath() string {
	return filepath.Join(r.SessionPath(), deltasDir)
}

func (r *Repository) metaPath() string {
	return filepath.Join(r.SessionPath(), metaFileName)
}

// GetCurrentSession returns the current session, or nil, nil when none has
// been started.
func (r *Repository) GetCurrentSession() (*Session, error) {
	data, err := os.ReadFile(r.metaPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "Failed to read session").
			WithContext("path", r.metaPath())
	}

	var m metaFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "Failed to parse session").
			WithContext("path", r.metaPath()).
			WithSuggestions("Remove the session directory to start a new session")
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "Invalid session id").
			WithContext("path", r.metaPath())
	}

	return &Session{
		ID: m.ID,
		Meta: Meta{
			StartTimestampMs: m.StartTimestampMs,
			LastTimestampMs:  m.LastTimestampMs,
			Branch:           m.Branch,
			Commit:           m.Commit,
		},
	}, nil
}

// GetOrCreateCurrentSession returns the current session, starting one if
// none exists. Creation happens under the repository lock.
func (r *Repository) GetOrCreateCurrentSession() (session *Session, err error) {
	if err := r.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if uerr := r.Unlock(); uerr != nil && err == nil {
			session, err = nil, uerr
		}
	}()

	current, err := r.GetCurrentSession()
	if err != nil || current != nil {
		return current, err
	}
	return r.createSession()
}

func (r *Repository) createSession() (*Session, error) {
	nowMs := uint64(r.now().UnixMilli())
	session := &Session{
		ID: uuid.NewString(),
		Meta: Meta{
			StartTimestampMs: nowMs,
			LastTimestampMs:  nowMs,
		},
	}

	if r.git != nil {
		branch, hash, err := r.git.Head()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "Failed to read HEAD")
		}
		if branch != "" {
			session.Meta.Branch = &branch
		}
		if !hash.IsZero() {
			commit := hash.String()
			session.Meta.Commit = &commit
		}
	}

	data, err := json.Marshal(metaFile{
		ID:               session.ID,
		StartTimestampMs: session.Meta.StartTimestampMs,
		LastTimestampMs:  session.Meta.LastTimestampMs,
		Branch:           session.Meta.Branch,
		Commit:           session.Meta.Commit,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "Failed to encode session")
	}

	if err := os.MkdirAll(r.DeltasPath(), common.DirPermissionSecure); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "Failed to create session directory").
			WithContext("path", r.DeltasPath())
	}
	if err := common.WriteFileAtomic(r.metaPath(), data, common.FilePermissionSecure); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSessionFailed, "Failed to write session").
			WithContext("path", r.metaPath())
	}

	logging.Logger.WithFields(logrus.Fields{
		"project": r.projectID,
		"session": session.ID,
	}).Info("started new session")

	return session, nil
}
