package git

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"trunkline/pkg/errors"
)

const (
	changeIDHeader = "change-id"
	maxPeelDepth   = 16
)

// Branch is a local or remote-tracking branch ref. Target is the zero hash
// when the ref could not be resolved to an object id.
type Branch struct {
	Name   plumbing.ReferenceName
	Target plumbing.Hash
}

// HasTarget reports whether the branch resolved to an object id
func (b Branch) HasTarget() bool {
	return !b.Target.IsZero()
}

// Repository answers the commit-graph queries trunkline needs on top of go-git
type Repository struct {
	path string
	repo *git.Repository
}

// Open opens the repository containing path
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRepoNotFound,
			"Failed to open repository").
			WithContext("path", path).
			WithSuggestions("Run the command inside a git repository or pass --repo")
	}

	return &Repository{path: path, repo: repo}, nil
}

// NewRepository wraps an already-opened go-git repository
func NewRepository(path string, repo *git.Repository) *Repository {
	return &Repository{path: path, repo: repo}
}

// Path returns the path the repository was opened from
func (r *Repository) Path() string {
	return r.path
}

// Git exposes the underlying go-git repository
func (r *Repository) Git() *git.Repository {
	return r.repo
}

// Remotes returns the configured remote names
func (r *Repository) Remotes() ([]string, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "Failed to list remotes")
	}

	names := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		names = append(names, remote.Config().Name)
	}
	return names, nil
}

// Branches enumerates local and remote-tracking branches in ref store order.
// Symbolic remote HEAD refs are aliases, not branches, and are skipped.
func (r *Repository) Branches() ([]Branch, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to list remote branches")
	}
	defer refs.Close()

	var branches []Branch
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if !name.IsBranch() && !name.IsRemote() {
			return nil
		}
		if ref.Type() == plumbing.SymbolicReference && name.IsRemote() &&
			strings.HasSuffix(name.String(), "/"+plumbing.HEAD.String()) {
			return nil
		}
		branches = append(branches, r.branchFromRef(ref))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to list remote branches")
	}

	return branches, nil
}

// FindBranch looks up a branch by ref name. It returns nil, nil when the ref
// does not exist.
func (r *Repository) FindBranch(name Refname) (*Branch, error) {
	ref, err := r.repo.Reference(name.ReferenceName(), false)
	if err == plumbing.ErrReferenceNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit,
			fmt.Sprintf("Failed to look up %s", name))
	}

	branch := r.branchFromRef(ref)
	return &branch, nil
}

func (r *Repository) branchFromRef(ref *plumbing.Reference) Branch {
	branch := Branch{Name: ref.Name()}
	if ref.Type() == plumbing.HashReference {
		branch.Target = ref.Hash()
		return branch
	}
	if resolved, err := r.repo.Reference(ref.Name(), true); err == nil {
		branch.Target = resolved.Hash()
	}
	return branch
}

// Refname classifies a branch's ref name and, for local branches, fills in
// the configured upstream.
func (r *Repository) Refname(branch Branch) (Refname, error) {
	remotes, err := r.Remotes()
	if err != nil {
		return Refname{}, err
	}

	name, err := ClassifyRefname(branch.Name, remotes)
	if err != nil {
		return Refname{}, err
	}

	if name.Kind == RefLocal {
		name.Upstream = r.upstream(name.Branch)
	}
	return name, nil
}

func (r *Repository) upstream(branch string) *RemoteRefname {
	cfg, err := r.repo.Config()
	if err != nil {
		return nil
	}
	bc, ok := cfg.Branches[branch]
	if !ok || bc.Remote == "" || bc.Remote == "." || bc.Merge == "" {
		return nil
	}
	return &RemoteRefname{Remote: bc.Remote, Branch: bc.Merge.Short()}
}

// PeelToCommit follows annotated tags from the branch tip down to a commit
func (r *Repository) PeelToCommit(branch Branch) (*object.Commit, error) {
	if !branch.HasTarget() {
		return nil, errors.New(errors.ErrCodeGit,
			fmt.Sprintf("%s does not point to an object", branch.Name))
	}

	hash := branch.Target
	for i := 0; i < maxPeelDepth; i++ {
		obj, err := r.repo.Object(plumbing.AnyObject, hash)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeGit,
				fmt.Sprintf("Failed to read object %s", hash))
		}

		switch o := obj.(type) {
		case *object.Commit:
			return o, nil
		case *object.Tag:
			hash = o.Target
		default:
			return nil, errors.New(errors.ErrCodeGit,
				fmt.Sprintf("%s points to a %s, not a commit", branch.Name, obj.Type()))
		}
	}

	return nil, errors.New(errors.ErrCodeGit,
		fmt.Sprintf("%s: tag chain too deep", branch.Name))
}

// CommitObject loads a commit by id
func (r *Repository) CommitObject(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit,
			fmt.Sprintf("Failed to get commit object %s", hash))
	}
	return commit, nil
}

// Log returns the commits reachable from `from` but not from `until` in
// topological order: every commit comes before its parents, and first-parent
// lines are kept together. A zero `until` walks the whole history.
func (r *Repository) Log(from, until plumbing.Hash) ([]*object.Commit, error) {
	tip, err := r.CommitObject(from)
	if err != nil {
		return nil, err
	}

	hidden, err := r.ancestors(until)
	if err != nil {
		return nil, err
	}

	var commits []*object.Commit
	iter := object.NewCommitPreorderIter(tip, hidden, nil)
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to walk commits").
			WithContext("from", from.String()).
			WithContext("until", until.String())
	}

	return topoSort(commits), nil
}

// topoSort reorders commits, given in preorder from a single tip, so that no
// commit is listed before one of its children. Parents outside the set are
// ignored.
func topoSort(commits []*object.Commit) []*object.Commit {
	if len(commits) < 2 {
		return commits
	}

	byHash := make(map[plumbing.Hash]*object.Commit, len(commits))
	for _, c := range commits {
		byHash[c.Hash] = c
	}

	children := make(map[plumbing.Hash]int, len(commits))
	for _, c := range commits {
		for _, p := range c.ParentHashes {
			if _, ok := byHash[p]; ok {
				children[p]++
			}
		}
	}

	var stack []*object.Commit
	for i := len(commits) - 1; i >= 0; i-- {
		if children[commits[i].Hash] == 0 {
			stack = append(stack, commits[i])
		}
	}

	sorted := make([]*object.Commit, 0, len(commits))
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sorted = append(sorted, c)

		// Push the first parent last so its line is continued next.
		for i := len(c.ParentHashes) - 1; i >= 0; i-- {
			parent, ok := byHash[c.ParentHashes[i]]
			if !ok {
				continue
			}
			children[parent.Hash]--
			if children[parent.Hash] == 0 {
				stack = append(stack, parent)
			}
		}
	}

	return sorted
}

// Distance counts the commits reachable from `from` but not from `to`
func (r *Repository) Distance(from, to plumbing.Hash) (int, error) {
	commits, err := r.Log(from, to)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}

func (r *Repository) ancestors(hash plumbing.Hash) (map[plumbing.Hash]bool, error) {
	seen := make(map[plumbing.Hash]bool)
	if hash.IsZero() {
		return seen, nil
	}

	start, err := r.CommitObject(hash)
	if err != nil {
		return nil, err
	}

	iter := object.NewCommitPreorderIter(start, nil, nil)
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to walk ancestors").
			WithContext("commit", hash.String())
	}

	return seen, nil
}

// CommitFilePaths lists the paths a commit touched relative to its first
// parent. A root commit touches every file in its tree. Deleted files are
// reported under their old path.
func (r *Repository) CommitFilePaths(commit *object.Commit) ([]string, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get commit tree: %w", err)
	}

	var files []string
	if commit.NumParents() == 0 {
		err = tree.Files().ForEach(func(f *object.File) error {
			files = append(files, f.Name)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to iterate files: %w", err)
		}
		return files, nil
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent commit: %w", err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get parent tree: %w", err)
	}

	changes, err := parentTree.Diff(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to get diff: %w", err)
	}

	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		files = append(files, name)
	}

	return files, nil
}

// ChangeID returns the value of the commit's change-id header, if any. The
// header is carried by tools that keep a logical identity across rewrites.
func (r *Repository) ChangeID(commit *object.Commit) (string, bool) {
	obj, err := r.repo.Storer.EncodedObject(plumbing.CommitObject, commit.Hash)
	if err != nil {
		return "", false
	}
	rd, err := obj.Reader()
	if err != nil {
		return "", false
	}
	defer rd.Close()

	return readHeader(rd, changeIDHeader)
}

func readHeader(rd io.Reader, key string) (string, bool) {
	br := bufio.NewReader(rd)
	prefix := key + " "
	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimSuffix(line, "\n")
		if trimmed == "" {
			// blank line ends the header block
			return "", false
		}
		if value, ok := strings.CutPrefix(trimmed, prefix); ok {
			return value, true
		}
		if err != nil {
			return "", false
		}
	}
}

// Head returns the checked-out branch name (empty when detached) and commit.
// An unborn HEAD yields zero values and no error.
func (r *Repository) Head() (string, plumbing.Hash, error) {
	head, err := r.repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		return "", plumbing.ZeroHash, nil
	}
	if err != nil {
		return "", plumbing.ZeroHash, errors.Wrap(err, errors.ErrCodeGit, "Failed to get HEAD reference")
	}

	branch := ""
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}
	return branch, head.Hash(), nil
}
