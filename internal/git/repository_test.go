package git

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trunkline/internal/testutil"
	"trunkline/pkg/errors"
)

func commitHashes(t *testing.T, repo *Repository, from, until plumbing.Hash) []plumbing.Hash {
	t.Helper()
	commits, err := repo.Log(from, until)
	require.NoError(t, err)

	hashes := make([]plumbing.Hash, 0, len(commits))
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
	}
	return hashes
}

func TestOpen(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	fx.Commit("init", "Alice", map[string]string{"README.md": "hi"})

	repo, err := Open(fx.Dir)
	require.NoError(t, err)
	assert.Equal(t, fx.Dir, repo.Path())

	_, err = Open(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRepoNotFound, errors.GetErrorCode(err))
}

func TestBranchesAndRefname(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	base := fx.Commit("init", "Alice", map[string]string{"a.txt": "a"})
	fx.AddRemote("origin")
	fx.SetRef(plumbing.NewRemoteReferenceName("origin", "master"), base)
	fx.SetSymbolicRef(plumbing.ReferenceName("refs/remotes/origin/HEAD"), plumbing.NewRemoteReferenceName("origin", "master"))
	fx.SetRef(plumbing.NewTagReferenceName("v1"), base)
	fx.SetUpstream("master", "origin", "master")

	repo := NewRepository(fx.Dir, fx.Repo)
	branches, err := repo.Branches()
	require.NoError(t, err)

	names := map[string]Branch{}
	for _, b := range branches {
		names[b.Name.String()] = b
	}
	assert.Len(t, names, 2)
	assert.Contains(t, names, "refs/heads/master")
	assert.Contains(t, names, "refs/remotes/origin/master")
	assert.Equal(t, base, names["refs/heads/master"].Target)

	local, err := repo.Refname(names["refs/heads/master"])
	require.NoError(t, err)
	require.NotNil(t, local.Upstream)
	assert.Equal(t, "refs/remotes/origin/master", local.Upstream.String())

	remote, err := repo.Refname(names["refs/remotes/origin/master"])
	require.NoError(t, err)
	assert.Nil(t, remote.Upstream)
	assert.Equal(t, "origin", remote.RemoteName())
}

func TestFindBranch(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	head := fx.Commit("init", "Alice", map[string]string{"a.txt": "a"})
	repo := NewRepository(fx.Dir, fx.Repo)

	found, err := repo.FindBranch(Refname{Kind: RefLocal, Branch: "master"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, head, found.Target)

	missing, err := repo.FindBranch(Refname{Kind: RefLocal, Branch: "nope"})
	require.NoError(t, err)
	assert.Nil(t, missing)

	fx.SetSymbolicRef(plumbing.NewBranchReferenceName("dangling"), plumbing.NewBranchReferenceName("gone"))
	dangling, err := repo.FindBranch(Refname{Kind: RefLocal, Branch: "dangling"})
	require.NoError(t, err)
	require.NotNil(t, dangling)
	assert.False(t, dangling.HasTarget())
}

func TestPeelToCommit(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	head := fx.Commit("init", "Alice", map[string]string{"a.txt": "a"})
	repo := NewRepository(fx.Dir, fx.Repo)

	commit, err := repo.PeelToCommit(Branch{Name: "refs/heads/master", Target: head})
	require.NoError(t, err)
	assert.Equal(t, head, commit.Hash)

	tagObj := fx.AnnotatedTag("v1", head)
	commit, err = repo.PeelToCommit(Branch{Name: "refs/heads/tagged", Target: tagObj})
	require.NoError(t, err)
	assert.Equal(t, head, commit.Hash)

	tree := fx.TreeOf(head)
	_, err = repo.PeelToCommit(Branch{Name: "refs/heads/tree", Target: tree})
	assert.Error(t, err)

	_, err = repo.PeelToCommit(Branch{Name: "refs/heads/empty"})
	assert.Error(t, err)
}

func TestLogAndDistance(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	base := fx.Commit("base", "Alice", map[string]string{"a.txt": "1"})

	fx.Checkout("feature", true, base)
	c1 := fx.Commit("c1", "Bob", map[string]string{"b.txt": "1"})
	c2 := fx.Commit("c2", "Bob", map[string]string{"b.txt": "2"})

	fx.Checkout("master", false, plumbing.ZeroHash)
	m1 := fx.Commit("m1", "Alice", map[string]string{"a.txt": "2"})

	repo := NewRepository(fx.Dir, fx.Repo)

	assert.Equal(t, []plumbing.Hash{c2, c1}, commitHashes(t, repo, c2, base))
	assert.Equal(t, []plumbing.Hash{c2, c1}, commitHashes(t, repo, c2, m1), "commits reachable from target are hidden")
	assert.Empty(t, commitHashes(t, repo, base, base))
	assert.Equal(t, []plumbing.Hash{c2, c1, base}, commitHashes(t, repo, c2, plumbing.ZeroHash))

	behind, err := repo.Distance(m1, c2)
	require.NoError(t, err)
	assert.Equal(t, 1, behind)

	ahead, err := repo.Distance(c2, m1)
	require.NoError(t, err)
	assert.Equal(t, 2, ahead)
}

func TestLogExcludesMergedTargetHistory(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	base := fx.Commit("base", "Alice", map[string]string{"a.txt": "1"})
	t1 := fx.Commit("t1", "Alice", map[string]string{"a.txt": "2"})

	fx.Checkout("feature", true, base)
	f1 := fx.Commit("f1", "Bob", map[string]string{"b.txt": "1"})
	merge := fx.CommitWithParents("merge target", "Bob", nil, []plumbing.Hash{f1, t1})

	repo := NewRepository(fx.Dir, fx.Repo)
	assert.Equal(t, []plumbing.Hash{merge, f1}, commitHashes(t, repo, merge, t1))

	behind, err := repo.Distance(t1, merge)
	require.NoError(t, err)
	assert.Equal(t, 0, behind)
}

func TestLogTopologicalOrder(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	base := fx.Commit("base", "Alice", map[string]string{"a.txt": "1"})
	a1 := fx.Commit("a1", "Alice", map[string]string{"a.txt": "2"})

	fx.Checkout("left", true, a1)
	p1 := fx.Commit("p1", "Bob", map[string]string{"left.txt": "1"})
	fx.Checkout("right", true, a1)
	p2 := fx.Commit("p2", "Carol", map[string]string{"right.txt": "1"})

	fx.Checkout("merged", true, p1)
	m := fx.CommitWithParents("merge", "Bob", map[string]string{"m.txt": "1"}, []plumbing.Hash{p1, p2})

	repo := NewRepository(fx.Dir, fx.Repo)
	assert.Equal(t, []plumbing.Hash{m, p1, p2, a1}, commitHashes(t, repo, m, base))
	assert.Equal(t, []plumbing.Hash{m, p1, p2, a1, base}, commitHashes(t, repo, m, plumbing.ZeroHash))
	assert.Equal(t, []plumbing.Hash{m, p2}, commitHashes(t, repo, m, p1))
}

func TestCommitFilePaths(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	root := fx.Commit("root", "Alice", map[string]string{"a.txt": "1", "dir/b.txt": "1"})
	edit := fx.Commit("edit", "Alice", map[string]string{"dir/b.txt": "2", "c.txt": "new"})
	removal := fx.Remove("remove", "Alice", "a.txt")

	repo := NewRepository(fx.Dir, fx.Repo)

	load := func(h plumbing.Hash) []string {
		c, err := repo.CommitObject(h)
		require.NoError(t, err)
		files, err := repo.CommitFilePaths(c)
		require.NoError(t, err)
		return files
	}

	assert.ElementsMatch(t, []string{"a.txt", "dir/b.txt"}, load(root))
	assert.ElementsMatch(t, []string{"c.txt", "dir/b.txt"}, load(edit))
	assert.Equal(t, []string{"a.txt"}, load(removal))
}

func TestChangeID(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	head := fx.Commit("init", "Alice", map[string]string{"a.txt": "1"})
	repo := NewRepository(fx.Dir, fx.Repo)

	plain, err := repo.CommitObject(head)
	require.NoError(t, err)
	_, ok := repo.ChangeID(plain)
	assert.False(t, ok)

	raw := fx.RawCommit(fx.TreeOf(head), []plumbing.Hash{head},
		[]string{"change-id 0b8c4d2e-6f1a-4c3b-9d7e-5a2f1e0c9b8a"}, "with change id\n")
	withID, err := repo.CommitObject(raw)
	require.NoError(t, err)

	id, ok := repo.ChangeID(withID)
	assert.True(t, ok)
	assert.Equal(t, "0b8c4d2e-6f1a-4c3b-9d7e-5a2f1e0c9b8a", id)
}

func TestHead(t *testing.T) {
	fx := testutil.NewGitFixture(t)
	repo := NewRepository(fx.Dir, fx.Repo)

	branch, hash, err := repo.Head()
	require.NoError(t, err)
	assert.Empty(t, branch)
	assert.True(t, hash.IsZero())

	head := fx.Commit("init", "Alice", map[string]string{"a.txt": "1"})
	branch, hash, err = repo.Head()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
	assert.Equal(t, head, hash)
}
