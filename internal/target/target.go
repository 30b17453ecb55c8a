package target

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"

	"trunkline/internal/common"
	"trunkline/internal/git"
	"trunkline/pkg/errors"
)

const fileName = "target.yaml"

// Target is the branch every other branch is compared against
type Target struct {
	Branch    git.RemoteRefname
	RemoteURL string
	SHA       plumbing.Hash
}

type targetFile struct {
	Branch    git.RemoteRefname `yaml:"branch"`
	RemoteURL string            `yaml:"remote_url,omitempty"`
	SHA       string            `yaml:"sha"`
}

// MarshalJSON emits {branchName, remoteUrl, sha}
func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		BranchName git.RemoteRefname `json:"branchName"`
		RemoteURL  string            `json:"remoteUrl"`
		SHA        string            `json:"sha"`
	}{t.Branch, t.RemoteURL, t.SHA.String()})
}

// Handle reads and writes the target stored in a project state directory
type Handle struct {
	path string
}

// NewHandle returns a handle for the target stored under stateDir
func NewHandle(stateDir string) *Handle {
	return &Handle{path: filepath.Join(stateDir, fileName)}
}

// Path returns the target file location
func (h *Handle) Path() string {
	return h.path
}

// GetDefaultTarget loads the stored target. It fails with
// ErrCodeTargetNotConfigured when none has been set.
func (h *Handle) GetDefaultTarget() (*Target, error) {
	data, err := os.ReadFile(h.path) // #nosec G304 - path is derived from the state dir
	if os.IsNotExist(err) {
		return nil, errors.NoTargetError(filepath.Dir(h.path), nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to read target").
			WithContext("path", h.path)
	}

	var f targetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "Failed to parse target").
			WithContext("path", h.path)
	}
	if f.SHA == "" || f.Branch.Branch == "" {
		return nil, errors.NoTargetError(filepath.Dir(h.path),
			fmt.Errorf("%s is missing branch or sha", h.path))
	}
	if !plumbing.IsHash(f.SHA) {
		return nil, errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid target sha %q", f.SHA)).
			WithContext("path", h.path)
	}

	return &Target{
		Branch:    f.Branch,
		RemoteURL: f.RemoteURL,
		SHA:       plumbing.NewHash(f.SHA),
	}, nil
}

// SetDefaultTarget replaces the stored target
func (h *Handle) SetDefaultTarget(t Target) error {
	data, err := yaml.Marshal(targetFile{
		Branch:    t.Branch,
		RemoteURL: t.RemoteURL,
		SHA:       t.SHA.String(),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "Failed to encode target")
	}

	if err := common.WriteFileAtomic(h.path, data, common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "Failed to write target").
			WithContext("path", h.path)
	}
	return nil
}
