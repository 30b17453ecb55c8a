package git

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"
)

const (
	localPrefix  = "refs/heads/"
	remotePrefix = "refs/remotes/"
)

// RemoteRefname names a remote-tracking branch, e.g. origin/main
type RemoteRefname struct {
	Remote string
	Branch string
}

// String returns the fully-qualified ref name
func (r RemoteRefname) String() string {
	return remotePrefix + r.Remote + "/" + r.Branch
}

// ShortName returns "<remote>/<branch>"
func (r RemoteRefname) ShortName() string {
	return r.Remote + "/" + r.Branch
}

// ReferenceName converts r to a go-git reference name
func (r RemoteRefname) ReferenceName() plumbing.ReferenceName {
	return plumbing.NewRemoteReferenceName(r.Remote, r.Branch)
}

// ParseRemoteRefname accepts "origin/main" or "refs/remotes/origin/main".
// The first path segment is taken as the remote name.
func ParseRemoteRefname(s string) (RemoteRefname, error) {
	rest := strings.TrimPrefix(s, remotePrefix)
	remote, branch, ok := strings.Cut(rest, "/")
	if !ok || remote == "" || branch == "" {
		return RemoteRefname{}, fmt.Errorf("invalid remote ref name %q: expected <remote>/<branch>", s)
	}
	return RemoteRefname{Remote: remote, Branch: branch}, nil
}

// MarshalJSON emits the fully-qualified ref name
func (r RemoteRefname) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON parses a fully-qualified or short remote ref name
func (r *RemoteRefname) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRemoteRefname(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalYAML emits the fully-qualified ref name
func (r RemoteRefname) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML parses a fully-qualified or short remote ref name
func (r *RemoteRefname) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRemoteRefname(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RefKind tells local branches from remote-tracking ones
type RefKind int

const (
	RefLocal RefKind = iota
	RefRemote
)

// Refname is a ref name classified as a local or remote-tracking branch
type Refname struct {
	Kind   RefKind
	Remote string // set for RefRemote
	Branch string
	// Upstream is the configured remote-tracking branch of a local branch
	Upstream *RemoteRefname
}

// String returns the fully-qualified ref name
func (r Refname) String() string {
	if r.Kind == RefRemote {
		return remotePrefix + r.Remote + "/" + r.Branch
	}
	return localPrefix + r.Branch
}

// ReferenceName converts r to a go-git reference name
func (r Refname) ReferenceName() plumbing.ReferenceName {
	return plumbing.ReferenceName(r.String())
}

// RemoteName returns the remote of a remote-tracking ref, "" for local refs
func (r Refname) RemoteName() string {
	if r.Kind == RefRemote {
		return r.Remote
	}
	return ""
}

// MarshalJSON emits the fully-qualified ref name
func (r Refname) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// ErrUnclassifiedRef is returned for refs that are neither local nor remote-tracking branches
var ErrUnclassifiedRef = fmt.Errorf("ref is not a local or remote-tracking branch")

// ClassifyRefname splits name into remote and branch parts. remotes lists the
// configured remote names; the longest matching one wins so remotes containing
// slashes are handled. Unknown remotes fall back to the first path segment.
func ClassifyRefname(name plumbing.ReferenceName, remotes []string) (Refname, error) {
	s := name.String()
	switch {
	case name.IsBranch():
		branch := strings.TrimPrefix(s, localPrefix)
		if branch == "" {
			return Refname{}, fmt.Errorf("%w: %s", ErrUnclassifiedRef, s)
		}
		return Refname{Kind: RefLocal, Branch: branch}, nil

	case name.IsRemote():
		rest := strings.TrimPrefix(s, remotePrefix)

		sorted := append([]string(nil), remotes...)
		sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
		for _, remote := range sorted {
			if branch, ok := strings.CutPrefix(rest, remote+"/"); ok && branch != "" {
				return Refname{Kind: RefRemote, Remote: remote, Branch: branch}, nil
			}
		}

		remote, branch, ok := strings.Cut(rest, "/")
		if !ok || remote == "" || branch == "" {
			return Refname{}, fmt.Errorf("%w: %s", ErrUnclassifiedRef, s)
		}
		return Refname{Kind: RefRemote, Remote: remote, Branch: branch}, nil
	}

	return Refname{}, fmt.Errorf("%w: %s", ErrUnclassifiedRef, s)
}

// ParseRefname resolves user input into a ref name. Fully-qualified names
// are classified as-is; "<remote>/<branch>" is a remote ref when <remote> is
// configured; anything else is a local branch.
func ParseRefname(s string, remotes []string) (Refname, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Refname{}, fmt.Errorf("empty ref name")
	}
	if strings.HasPrefix(s, "refs/") {
		return ClassifyRefname(plumbing.ReferenceName(s), remotes)
	}
	for _, remote := range remotes {
		if strings.HasPrefix(s, remote+"/") {
			return ClassifyRefname(plumbing.ReferenceName(remotePrefix+s), remotes)
		}
	}
	return Refname{Kind: RefLocal, Branch: s}, nil
}
