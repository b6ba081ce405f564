package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-github/v30/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_CI(t *testing.T) {
	t.Setenv("CI", "1")
	latest, newer, err := (&Checker{}).Check(context.Background(), "1.0.0")
	require.NoError(t, err)
	assert.Empty(t, latest)
	assert.False(t, newer)
}

func TestNewer(t *testing.T) {
	assert.True(t, Newer("v1.3.0", "1.2.9"))
	assert.False(t, Newer("1.2.3", "v1.2.3"))
	assert.False(t, Newer("1.2.0", "1.2.1"))
	assert.True(t, Newer("1.10.0", "1.9.0"))
	assert.False(t, Newer("garbage", "1.0.0"))
	assert.Equal(t, "1.2.3", normalize(" v1.2.3 "))
}

func TestCheck_UsesCacheWhenFresh(t *testing.T) {
	t.Setenv("CI", "")
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "leakwatch", cacheFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	b, _ := json.Marshal(cache{LastChecked: time.Now(), Latest: "1.2.3"})
	require.NoError(t, os.WriteFile(path, b, 0644))

	latest, newer, err := (&Checker{Offline: true}).Check(context.Background(), "1.2.2")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", latest)
	assert.True(t, newer)
}

func TestCheck_FetchesLatestRelease(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/repos/%s/%s/releases/latest", Owner, Repo), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v9.9.9"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gh := github.NewClient(nil)
	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = u

	latest, newer, err := (&Checker{Client: gh}).Check(context.Background(), "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", latest)
	assert.True(t, newer)

	// cached for the next call
	latest, _, err = (&Checker{Offline: true}).Check(context.Background(), "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", latest)
}
