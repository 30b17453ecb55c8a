package branches

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"

	"trunkline/internal/git"
	"trunkline/internal/logging"
	"trunkline/internal/project"
	"trunkline/internal/target"
	"trunkline/pkg/errors"
)

// ListRemoteBranches returns every local and remote-tracking branch except the
// target itself and trunkline's bookkeeping branches, in ref store order.
// Branches whose tip cannot be resolved are logged and skipped.
func ListRemoteBranches(repo *project.Repository) ([]RemoteBranch, error) {
	defaultTarget, err := target.NewHandle(repo.StateDir()).GetDefaultTarget()
	if err != nil {
		return nil, err
	}

	all, err := repo.Git().Branches()
	if err != nil {
		return nil, err
	}

	remoteBranches := []RemoteBranch{}
	for _, b := range all {
		branch, err := BranchToRemoteBranch(repo.Git(), b)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			continue
		}
		if isTarget(branch.Name, defaultTarget) || isReserved(branch.Name) {
			continue
		}
		remoteBranches = append(remoteBranches, *branch)
	}

	return remoteBranches, nil
}

func isTarget(name git.Refname, t *target.Target) bool {
	return name.Kind == git.RefRemote &&
		name.Remote == t.Branch.Remote &&
		name.Branch == t.Branch.Branch
}

func isReserved(name git.Refname) bool {
	return name.Branch == IntegrationBranch || name.Branch == TargetBranch
}

// GetBranchData computes divergence data for refname against the current target
func GetBranchData(repo *project.Repository, refname git.Refname) (*RemoteBranchData, error) {
	defaultTarget, err := target.NewHandle(repo.StateDir()).GetDefaultTarget()
	if err != nil {
		return nil, err
	}

	branch, err := repo.Git().FindBranch(refname)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, errors.BranchNotFoundError(refname.String())
	}

	data, err := BranchToRemoteBranchData(repo.Git(), *branch, defaultTarget.SHA)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New(errors.ErrCodeGit, "failed to get branch data").
			WithContext("refname", refname.String()).
			WithSuggestions("The branch does not point to a commit yet")
	}
	return data, nil
}

// BranchToRemoteBranch projects a branch for listing. It returns nil, nil when
// the branch should be skipped: its tip does not peel to a commit or its name
// is not a local or remote-tracking branch.
func BranchToRemoteBranch(repo *git.Repository, branch git.Branch) (*RemoteBranch, error) {
	commit, err := repo.PeelToCommit(branch)
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{
			"branch": branch.Name.String(),
			"error":  err,
		}).Warn("ignoring branch as peeling failed")
		return nil, nil
	}

	name, err := repo.Refname(branch)
	if stderrors.Is(err, git.ErrUnclassifiedRef) {
		logging.Logger.WithField("branch", branch.Name.String()).Debug("ignoring unclassified ref")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	remoteBranch := &RemoteBranch{
		Sha:                   branch.Target.String(),
		Name:                  name,
		Upstream:              name.Upstream,
		LastCommitTimestampMs: unixMillis(commit.Committer.When),
	}
	if author, ok := authorName(commit.Author.Name); ok {
		remoteBranch.LastCommitAuthor = &author
	}
	return remoteBranch, nil
}

// authorName is the tip author for listing. Any name that is valid UTF-8 is
// kept, including an empty one.
func authorName(name string) (string, bool) {
	if !utf8.ValidString(name) {
		return "", false
	}
	return name, true
}

// BranchToRemoteBranchData computes the ahead commits, behind count, fork
// point and metrics of branch relative to base. It returns nil, nil for a
// branch without a resolvable tip.
func BranchToRemoteBranchData(repo *git.Repository, branch git.Branch, base plumbing.Hash) (*RemoteBranchData, error) {
	if !branch.HasTarget() {
		return nil, nil
	}

	tip, err := repo.PeelToCommit(branch)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to resolve branch tip").
			WithContext("branch", branch.Name.String())
	}

	ahead, err := repo.Log(tip.Hash, base)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to get ahead commits")
	}

	name, err := repo.Refname(branch)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "could not get branch name").
			WithContext("branch", branch.Name.String())
	}

	behind, err := repo.Distance(base, tip.Hash)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGit, "failed to get behind count")
	}

	commits := make([]RemoteCommit, 0, len(ahead))
	for _, c := range ahead {
		commits = append(commits, CommitToRemoteCommit(repo, c))
	}

	recentAuthors, recentFiles := GetRecentCommitsMetric(commits)

	return &RemoteBranchData{
		Sha:           branch.Target.String(),
		Name:          name,
		Upstream:      name.Upstream,
		Behind:        behind,
		Commits:       commits,
		ForkPoint:     forkPoint(ahead),
		RecentAuthors: recentAuthors,
		RecentFiles:   recentFiles,
	}, nil
}

// forkPoint is the first parent of the oldest ahead commit
func forkPoint(ahead []*object.Commit) *string {
	if len(ahead) == 0 {
		return nil
	}
	oldest := ahead[len(ahead)-1]
	if len(oldest.ParentHashes) == 0 {
		return nil
	}
	id := oldest.ParentHashes[0].String()
	return &id
}

// CommitToRemoteCommit projects a commit. Touched files are advisory: a
// failure to compute them yields an empty list.
func CommitToRemoteCommit(repo *git.Repository, commit *object.Commit) RemoteCommit {
	parentIDs := make([]string, 0, len(commit.ParentHashes))
	for _, p := range commit.ParentHashes {
		parentIDs = append(parentIDs, p.String())
	}

	filePaths, err := repo.CommitFilePaths(commit)
	if err != nil {
		logging.Logger.WithFields(logrus.Fields{
			"commit": commit.Hash.String(),
			"error":  err,
		}).Debug("failed to list commit files")
	}
	if len(filePaths) == 0 || err != nil {
		filePaths = []string{}
	}

	var changeID *string
	if id, ok := repo.ChangeID(commit); ok {
		changeID = &id
	}

	return RemoteCommit{
		ID:          commit.Hash.String(),
		Description: strings.ToValidUTF8(commit.Message, "\uFFFD"),
		CreatedAt:   unixSeconds(commit.Committer.When),
		Author:      NewAuthor(commit.Author),
		ChangeID:    changeID,
		ParentIDs:   parentIDs,
		FilePaths:   filePaths,
	}
}

// String renders a one-line summary, used by the CLI
func (d *RemoteBranchData) String() string {
	fork := "none"
	if d.ForkPoint != nil {
		fork = (*d.ForkPoint)[:8]
	}
	return fmt.Sprintf("%s: %d ahead, %d behind, fork point %s", d.Name, len(d.Commits), d.Behind, fork)
}
