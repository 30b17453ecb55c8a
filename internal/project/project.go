// Package project ties an opened git repository to the directory where
// trunkline keeps its per-project state (target, sessions, deltas).
package project

import (
	"os"
	"path/filepath"

	"trunkline/internal/common"
	"trunkline/internal/config"
	"trunkline/internal/git"
	"trunkline/pkg/errors"
)

// Project identifies a repository and its state directory
type Project struct {
	ID       string
	Path     string
	StateDir string
}

// Repository is an opened project
type Repository struct {
	project Project
	git     *git.Repository
}

// New wraps an opened repository with its project description
func New(p Project, repo *git.Repository) *Repository {
	return &Repository{project: p, git: repo}
}

// Open opens the git repository at path and derives its state directory from cfg
func Open(path string, cfg *config.Config) (*Repository, error) {
	abs, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "Invalid repository path").
			WithContext("path", path)
	}

	repo, err := git.Open(abs)
	if err != nil {
		return nil, err
	}

	stateDir, err := cfg.ProjectStateDir(abs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to derive project state directory")
	}

	return New(Project{
		ID:       filepath.Base(stateDir),
		Path:     abs,
		StateDir: stateDir,
	}, repo), nil
}

// Project returns the project description
func (r *Repository) Project() Project {
	return r.project
}

// Git returns the commit-graph provider
func (r *Repository) Git() *git.Repository {
	return r.git
}

// StateDir returns the per-project state directory
func (r *Repository) StateDir() string {
	return r.project.StateDir
}

// EnsureStateDir creates the state directory if missing
func (r *Repository) EnsureStateDir() error {
	if err := os.MkdirAll(r.project.StateDir, common.DirPermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to create project state directory").
			WithContext("state_dir", r.project.StateDir)
	}
	return nil
}
