package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// serve local repositories in-process so the tests need no git binary
	client.InstallProtocol("file", server.DefaultServer)
}

// createTestRepo returns the .git directory of a repository at
// <tmp>/acme/api holding one commit.
func createTestRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "acme", "api")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yml"), []byte("password: hunter2\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("app.yml")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return filepath.Join(dir, ".git")
}

func TestCloner_ClonesOnce(t *testing.T) {
	src := createTestRepo(t)
	out := t.TempDir()
	c := NewCloner(Options{Dir: out})

	c.Clone(src, "abc")
	c.Clone(src, "def")
	c.Wait()

	b, err := os.ReadFile(filepath.Join(out, "acme", "api", "app.yml"))
	require.NoError(t, err)
	assert.Equal(t, "password: hunter2\n", string(b))

	// a second run over an existing clone fetches instead
	c2 := NewCloner(Options{Dir: out})
	c2.Clone(src, "abc")
	c2.Wait()
	assert.FileExists(t, filepath.Join(out, "acme", "api", "app.yml"))
}

func TestCloner_FailureDoesNotPanic(t *testing.T) {
	out := t.TempDir()
	c := NewCloner(Options{Dir: out})
	c.Clone(filepath.Join(t.TempDir(), "missing", "repo", ".git"), "abc")
	c.Wait()
	_, err := os.Stat(filepath.Join(out, "missing", "repo"))
	assert.True(t, os.IsNotExist(err))
}

func TestRepoDir(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://github.com/acme/api", filepath.Join("acme", "api"), false},
		{"https://github.com/acme/api.git", filepath.Join("acme", "api"), false},
		{"https://github.com/../../etc/passwd", filepath.Join("etc", "passwd"), false},
		{"/tmp/x/acme/api", filepath.Join("acme", "api"), false},
		{"/tmp/x/acme/api/.git", filepath.Join("acme", "api"), false},
		{"https://github.com/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := RepoDir(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
