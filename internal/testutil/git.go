package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"trunkline/internal/common"
)

// GitFixture builds small repositories for tests. Commit times advance by
// one minute per commit starting at a fixed instant so ordering is stable.
type GitFixture struct {
	t        *testing.T
	Dir      string
	Repo     *git.Repository
	Worktree *git.Worktree
	clock    time.Time
}

// NewGitFixture initializes an empty non-bare repository in a temp dir
func NewGitFixture(t *testing.T) *GitFixture {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	return &GitFixture{
		t:        t,
		Dir:      dir,
		Repo:     repo,
		Worktree: wt,
		clock:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Signature returns the signature used for author's next commit
func (f *GitFixture) Signature(author string) *object.Signature {
	f.clock = f.clock.Add(time.Minute)
	return &object.Signature{
		Name:  author,
		Email: strings.ToLower(strings.ReplaceAll(author, " ", ".")) + "@example.com",
		When:  f.clock,
	}
}

// Commit writes files into the worktree and commits them on HEAD
func (f *GitFixture) Commit(message, author string, files map[string]string) plumbing.Hash {
	return f.CommitWithParents(message, author, files, nil)
}

// CommitWithParents is Commit with explicit parents, used to build merges
func (f *GitFixture) CommitWithParents(message, author string, files map[string]string, parents []plumbing.Hash) plumbing.Hash {
	f.t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(f.Dir, name)
		if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
			f.t.Fatalf("Failed to create directories: %v", err)
		}
		if err := os.WriteFile(path, []byte(files[name]), common.FilePermissionNormal); err != nil {
			f.t.Fatalf("Failed to write %s: %v", name, err)
		}
		if _, err := f.Worktree.Add(name); err != nil {
			f.t.Fatalf("Failed to add %s: %v", name, err)
		}
	}

	sig := f.Signature(author)
	hash, err := f.Worktree.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	if err != nil {
		f.t.Fatalf("Failed to commit: %v", err)
	}
	return hash
}

// Remove deletes a file from the worktree and commits the removal
func (f *GitFixture) Remove(message, author, name string) plumbing.Hash {
	f.t.Helper()

	if _, err := f.Worktree.Remove(name); err != nil {
		f.t.Fatalf("Failed to remove %s: %v", name, err)
	}
	sig := f.Signature(author)
	hash, err := f.Worktree.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		f.t.Fatalf("Failed to commit: %v", err)
	}
	return hash
}

// Checkout switches to branch, creating it at from when create is set
func (f *GitFixture) Checkout(branch string, create bool, from plumbing.Hash) {
	f.t.Helper()

	opts := &git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
		Force:  true,
	}
	if create {
		opts.Hash = from
	}
	if err := f.Worktree.Checkout(opts); err != nil {
		f.t.Fatalf("Failed to checkout %s: %v", branch, err)
	}
}

// SetRef points name at hash without touching the worktree
func (f *GitFixture) SetRef(name plumbing.ReferenceName, hash plumbing.Hash) {
	f.t.Helper()
	if err := f.Repo.Storer.SetReference(plumbing.NewHashReference(name, hash)); err != nil {
		f.t.Fatalf("Failed to set %s: %v", name, err)
	}
}

// SetSymbolicRef points name at another ref
func (f *GitFixture) SetSymbolicRef(name, target plumbing.ReferenceName) {
	f.t.Helper()
	if err := f.Repo.Storer.SetReference(plumbing.NewSymbolicReference(name, target)); err != nil {
		f.t.Fatalf("Failed to set %s: %v", name, err)
	}
}

// AddRemote registers a remote named name
func (f *GitFixture) AddRemote(name string) {
	f.t.Helper()
	_, err := f.Repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{"https://example.com/" + name + "/repo.git"},
	})
	if err != nil {
		f.t.Fatalf("Failed to create remote %s: %v", name, err)
	}
}

// SetUpstream configures branch to track remote/remoteBranch
func (f *GitFixture) SetUpstream(branch, remote, remoteBranch string) {
	f.t.Helper()

	cfg, err := f.Repo.Config()
	if err != nil {
		f.t.Fatalf("Failed to read config: %v", err)
	}
	cfg.Branches[branch] = &config.Branch{
		Name:   branch,
		Remote: remote,
		Merge:  plumbing.NewBranchReferenceName(remoteBranch),
	}
	if err := f.Repo.SetConfig(cfg); err != nil {
		f.t.Fatalf("Failed to write config: %v", err)
	}
}

// AnnotatedTag creates an annotated tag object for hash and returns the tag object's id
func (f *GitFixture) AnnotatedTag(name string, hash plumbing.Hash) plumbing.Hash {
	f.t.Helper()

	ref, err := f.Repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  f.Signature("Tagger"),
		Message: "tag " + name,
	})
	if err != nil {
		f.t.Fatalf("Failed to create tag %s: %v", name, err)
	}
	return ref.Hash()
}

// RawCommit stores a commit object with extra header lines verbatim and
// returns its id. Used for headers go-git does not write itself.
func (f *GitFixture) RawCommit(tree plumbing.Hash, parents []plumbing.Hash, extraHeaders []string, message string) plumbing.Hash {
	f.t.Helper()
	return f.RawCommitAt(tree, parents, 1704110400, extraHeaders, message)
}

// RawCommitAt is RawCommit with an explicit author and committer time in
// seconds, which may be negative.
func (f *GitFixture) RawCommitAt(tree plumbing.Hash, parents []plumbing.Hash, unix int64, extraHeaders []string, message string) plumbing.Hash {
	f.t.Helper()

	when := strconv.FormatInt(unix, 10)
	var b strings.Builder
	b.WriteString("tree " + tree.String() + "\n")
	for _, p := range parents {
		b.WriteString("parent " + p.String() + "\n")
	}
	b.WriteString("author Raw <raw@example.com> " + when + " +0000\n")
	b.WriteString("committer Raw <raw@example.com> " + when + " +0000\n")
	for _, h := range extraHeaders {
		b.WriteString(h + "\n")
	}
	b.WriteString("\n" + message)

	obj := f.Repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	w, err := obj.Writer()
	if err != nil {
		f.t.Fatalf("Failed to open object writer: %v", err)
	}
	if _, err := w.Write([]byte(b.String())); err != nil {
		f.t.Fatalf("Failed to write object: %v", err)
	}
	if err := w.Close(); err != nil {
		f.t.Fatalf("Failed to close object writer: %v", err)
	}

	hash, err := f.Repo.Storer.SetEncodedObject(obj)
	if err != nil {
		f.t.Fatalf("Failed to store object: %v", err)
	}
	return hash
}

// TreeOf returns the tree id of commit
func (f *GitFixture) TreeOf(commit plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	c, err := f.Repo.CommitObject(commit)
	if err != nil {
		f.t.Fatalf("Failed to load commit %s: %v", commit, err)
	}
	return c.TreeHash
}
