package branches

import (
	"crypto/md5" // #nosec G501 - gravatar addresses are md5 by definition
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"trunkline/internal/git"
)

// Reserved branch names used for bookkeeping. They are never listed.
const (
	IntegrationBranch = "trunkline/integration"
	TargetBranch      = "trunkline/target"
)

// RemoteBranch is the sidebar view of a branch that has not been adopted
// into a managed branch yet.
type RemoteBranch struct {
	Sha                   string             `json:"sha"`
	Name                  git.Refname        `json:"name"`
	Upstream              *git.RemoteRefname `json:"upstream"`
	LastCommitTimestampMs *uint64            `json:"lastCommitTimestampMs"`
	LastCommitAuthor      *string            `json:"lastCommitAuthor"`
}

// RemoteBranchData describes how one branch diverges from the target
type RemoteBranchData struct {
	Sha           string             `json:"sha"`
	Name          git.Refname        `json:"name"`
	Upstream      *git.RemoteRefname `json:"upstream"`
	Behind        int                `json:"behind"`
	Commits       []RemoteCommit     `json:"commits"`
	ForkPoint     *string            `json:"forkPoint"`
	RecentAuthors []CommitMetrics    `json:"recentAuthors"`
	RecentFiles   []CommitMetrics    `json:"recentFiles"`
}

// RemoteCommit is the projection of one ahead commit
type RemoteCommit struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	CreatedAt   uint64   `json:"createdAt"`
	Author      Author   `json:"author"`
	ChangeID    *string  `json:"changeId"`
	ParentIDs   []string `json:"parentIds"`
	FilePaths   []string `json:"filePaths"`
}

// Author identifies who wrote a commit
type Author struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	GravatarURL string `json:"gravatarUrl"`
}

// CommitMetrics counts how many commits share a subject (author or file)
type CommitMetrics struct {
	Name      string   `json:"name"`
	Value     int      `json:"value"`
	CommitIDs []string `json:"commitIds"`
}

// NewAuthor builds an Author from a commit signature
func NewAuthor(sig object.Signature) Author {
	return Author{
		Name:        sig.Name,
		Email:       sig.Email,
		GravatarURL: gravatarURL(sig.Email),
	}
}

func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email)))) // #nosec G401
	q := url.Values{}
	q.Set("s", "100")
	q.Set("r", "g")
	q.Set("d", "retro")
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?%s", sum, q.Encode())
}

// unixSeconds converts a commit time for serialization. Times that cannot be
// represented as unsigned seconds come from corrupt objects and are a defect,
// never silently clamped.
func unixSeconds(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		panic(fmt.Sprintf("commit timestamp %d is before the unix epoch", s))
	}
	return uint64(s)
}

// unixMillis is the listing timestamp. It is optional: nil when t does not
// fit in unsigned milliseconds.
func unixMillis(t time.Time) *uint64 {
	s := t.Unix()
	if s < 0 || uint64(s) > math.MaxUint64/1000 {
		return nil
	}
	ms := uint64(s) * 1000
	return &ms
}
