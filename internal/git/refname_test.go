package git

import (
	"encoding/json"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestClassifyRefname(t *testing.T) {
	remotes := []string{"origin", "team/upstream"}

	tests := []struct {
		name    string
		ref     string
		want    Refname
		wantErr bool
	}{
		{
			name: "local branch",
			ref:  "refs/heads/feature/login",
			want: Refname{Kind: RefLocal, Branch: "feature/login"},
		},
		{
			name: "remote branch",
			ref:  "refs/remotes/origin/main",
			want: Refname{Kind: RefRemote, Remote: "origin", Branch: "main"},
		},
		{
			name: "remote with slash prefers longest configured remote",
			ref:  "refs/remotes/team/upstream/dev",
			want: Refname{Kind: RefRemote, Remote: "team/upstream", Branch: "dev"},
		},
		{
			name: "unknown remote falls back to first segment",
			ref:  "refs/remotes/fork/topic/x",
			want: Refname{Kind: RefRemote, Remote: "fork", Branch: "topic/x"},
		},
		{name: "tag", ref: "refs/tags/v1.0.0", wantErr: true},
		{name: "notes", ref: "refs/notes/commits", wantErr: true},
		{name: "remote without branch", ref: "refs/remotes/origin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyRefname(plumbing.ReferenceName(tt.ref), remotes)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnclassifiedRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ref, got.String())
		})
	}
}

func TestParseRefname(t *testing.T) {
	remotes := []string{"origin"}

	got, err := ParseRefname("feature", remotes)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature", got.String())

	got, err = ParseRefname("origin/main", remotes)
	require.NoError(t, err)
	assert.Equal(t, RefRemote, got.Kind)
	assert.Equal(t, "origin", got.RemoteName())

	got, err = ParseRefname("upstream/main", remotes)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/upstream/main", got.String())

	got, err = ParseRefname("refs/remotes/origin/dev", remotes)
	require.NoError(t, err)
	assert.Equal(t, "dev", got.Branch)

	_, err = ParseRefname("  ", remotes)
	assert.Error(t, err)
}

func TestRemoteRefnameEncoding(t *testing.T) {
	r := RemoteRefname{Remote: "origin", Branch: "main"}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `"refs/remotes/origin/main"`, string(data))

	var decoded RemoteRefname
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r, decoded)

	out, err := yaml.Marshal(struct {
		Branch RemoteRefname `yaml:"branch"`
	}{r})
	require.NoError(t, err)
	assert.Equal(t, "branch: refs/remotes/origin/main\n", string(out))

	var fromYAML struct {
		Branch RemoteRefname `yaml:"branch"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("branch: origin/main\n"), &fromYAML))
	assert.Equal(t, r, fromYAML.Branch)

	_, err = ParseRemoteRefname("main")
	assert.Error(t, err)
}

func TestRefnameJSON(t *testing.T) {
	local := Refname{Kind: RefLocal, Branch: "dev", Upstream: &RemoteRefname{Remote: "origin", Branch: "dev"}}
	data, err := json.Marshal(local)
	require.NoError(t, err)
	assert.JSONEq(t, `"refs/heads/dev"`, string(data))
	assert.Empty(t, local.RemoteName())
}
