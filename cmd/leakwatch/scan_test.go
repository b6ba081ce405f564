package leakwatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch/internal/audit"
	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `groups:
  - name: credentials
    corp: acme
    rules:
      - keyword: smtp.acme.com
        extension: properties
        mode: normal-match
`

// fakeGitHub serves one search hit whose blob leaks an smtp password.
func fakeGitHub(t *testing.T, searches *atomic.Int32) *httptest.Server {
	t.Helper()
	reset := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"resources": {"search": {"limit": 30, "remaining": 30, "reset": %s}}}`, reset)
	})
	mux.HandleFunc("/search/code", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		assert.Equal(t, "smtp.acme.com extension:properties ", r.URL.Query().Get("q"))
		w.Header().Set("X-RateLimit-Limit", "30")
		w.Header().Set("X-RateLimit-Remaining", "29")
		w.Header().Set("X-RateLimit-Reset", reset)
		fmt.Fprint(w, `{"total_count": 1, "items": [
			{"name": "mail.properties", "path": "src/mail.properties", "sha": "abc123",
			 "html_url": "https://github.com/acme/api/blob/main/src/mail.properties",
			 "repository": {"full_name": "acme/api", "html_url": "https://github.com/acme/api"}}
		]}`)
	})
	mux.HandleFunc("/repos/acme/api/git/blobs/abc123", func(w http.ResponseWriter, r *http.Request) {
		enc := base64.StdEncoding.EncodeToString([]byte("mail.host=smtp.acme.com\nmail.user=ops\nmail.password=Winter2024!\n"))
		fmt.Fprintf(w, `{"sha": "abc123", "encoding": "base64", "content": %q}`, enc)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestScanReportsOnceAndRecordsHashes(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	var searches atomic.Int32
	srv := fakeGitHub(t, &searches)

	rulesPath := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(testRules), 0644))

	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	cli := config.FileConfig{
		Tokens:              []string{"ghp_testtoken"},
		Rules:               str(rulesPath),
		APIURL:              str(srv.URL + "/"),
		SearchRatePerMinute: num(600),
		OutputDir:           str(filepath.Join(dir, "reports")),
		HashStore:           &config.HashStoreConfig{Driver: str("file"), Path: str(filepath.Join(dir, "hashes.json"))},
	}
	s, err := resolve(cli, config.FileConfig{}, config.FileConfig{}, nil)
	require.NoError(t, err)

	flagJSON = true
	t.Cleanup(func() { flagJSON = false })

	rec, err := scan(context.Background(), s, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Confirmed)
	assert.Equal(t, 0, rec.Failed)
	require.Len(t, rec.Rules, 1)
	assert.Equal(t, "smtp.acme.com extension:properties ", rec.Rules[0].Query)

	files, err := filepath.Glob(filepath.Join(dir, "reports", "*", "acme", "*-p0.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	// The sha was recorded, so a second run reports nothing new.
	rec, err = scan(context.Background(), s, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Confirmed)
	assert.Equal(t, 1, rec.Rules[0].Processed)
	assert.Equal(t, int32(2), searches.Load())

	history, err := audit.NewAuditLog("").LoadHistory()
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestScanRequiresRules(t *testing.T) {
	s, err := resolve(config.FileConfig{Tokens: []string{"t"}}, config.FileConfig{}, config.FileConfig{}, nil)
	require.NoError(t, err)
	_, err = scan(context.Background(), s, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rule file")
}

func TestScanRejectsFailedTokens(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))
	t.Cleanup(srv.Close)

	rulesPath := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(testRules), 0644))
	str := func(s string) *string { return &s }
	s, err := resolve(config.FileConfig{
		Tokens: []string{"ghp_revoked"},
		Rules:  str(rulesPath),
		APIURL: str(srv.URL + "/"),
	}, config.FileConfig{}, config.FileConfig{}, nil)
	require.NoError(t, err)

	_, err = scan(context.Background(), s, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token passed verification")
}
