// Package update checks GitHub releases for a newer leakwatch.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
	"github.com/google/go-github/v30/github"
)

const (
	Owner = "leakwatch"
	Repo  = "leakwatch"

	cacheFileName = "update.json"
	cacheTTL      = 24 * time.Hour
)

type cache struct {
	LastChecked time.Time `json:"last_checked"`
	Latest      string    `json:"latest"`
}

func configDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "leakwatch")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "leakwatch")
}

func loadCache() (cache, error) {
	var c cache
	dir := configDir()
	if dir == "" {
		return c, errors.New("no config dir")
	}
	b, err := os.ReadFile(filepath.Join(dir, cacheFileName))
	if err != nil {
		return c, err
	}
	_ = json.Unmarshal(b, &c)
	return c, nil
}

func saveCache(c cache) {
	dir := configDir()
	if dir == "" {
		return
	}
	_ = os.MkdirAll(dir, 0755)
	b, _ := json.MarshalIndent(c, "", "  ")
	_ = os.WriteFile(filepath.Join(dir, cacheFileName), b, 0644)
}

// Checker looks up the latest release. Client may point at a test server.
type Checker struct {
	Client *github.Client
	// Offline disables network lookups; only the cache is consulted.
	Offline bool
}

func (c *Checker) latestOnline(ctx context.Context) (string, error) {
	client := c.Client
	if client == nil {
		client = github.NewClient(nil)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	rel, _, err := client.Repositories.GetLatestRelease(ctx, Owner, Repo)
	if err != nil {
		return "", err
	}
	v := rel.GetTagName()
	if v == "" {
		v = rel.GetName()
	}
	return v, nil
}

// Check returns (latest, isNewer, error). It uses a 24h cache and skips in CI.
func (c *Checker) Check(ctx context.Context, current string) (string, bool, error) {
	if os.Getenv("CI") != "" {
		return "", false, nil
	}
	cached, _ := loadCache()
	latest := cached.Latest
	if !c.Offline && (time.Since(cached.LastChecked) > cacheTTL || latest == "") {
		if v, err := c.latestOnline(ctx); err == nil {
			latest = normalize(v)
			saveCache(cache{Latest: latest, LastChecked: time.Now()})
		}
	}
	if latest == "" || current == "" {
		return latest, false, nil
	}
	return latest, Newer(latest, current), nil
}

// Newer reports whether latest is a higher version than current. Versions
// that do not parse are never newer.
func Newer(latest, current string) bool {
	l, err := semver.ParseTolerant(normalize(latest))
	if err != nil {
		return false
	}
	cur, err := semver.ParseTolerant(normalize(current))
	if err != nil {
		return false
	}
	return l.GT(cur)
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(v, "v")
}
