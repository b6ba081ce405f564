// Package git clones the repositories behind reported hits for offline
// review.
package git

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/leakwatch/leakwatch/internal/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Options configures a Cloner.
type Options struct {
	// Dir is where repositories are cloned, as <Dir>/<owner>/<repo>.
	Dir string
	// Workers bounds concurrent clones. Default 2.
	Workers int
	// Depth limits history; 0 clones everything.
	Depth int
	Log   logrus.FieldLogger
}

// Cloner clones repositories in the background. Each repository is cloned
// at most once per Cloner; failures are logged and otherwise ignored.
type Cloner struct {
	opts Options
	sem  *semaphore.Weighted
	log  logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	seen map[string]bool
}

func NewCloner(opts Options) *Cloner {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cloner{
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.Workers)),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		seen:   map[string]bool{},
	}
}

// Clone schedules a clone of repoURL and returns immediately. sha is the blob
// that triggered it and is only logged.
func (c *Cloner) Clone(repoURL, sha string) {
	name, err := RepoDir(repoURL)
	if err != nil {
		c.log.WithError(err).WithField("repository", repoURL).Warn("clone skipped")
		return
	}
	c.mu.Lock()
	if c.seen[name] {
		c.mu.Unlock()
		return
	}
	c.seen[name] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		log := c.log.WithFields(logrus.Fields{"repository": repoURL, "sha": sha})
		if err := c.sem.Acquire(c.ctx, 1); err != nil {
			return
		}
		defer c.sem.Release(1)
		dest := filepath.Join(c.opts.Dir, name)
		if err := c.clone(c.ctx, repoURL, dest); err != nil {
			log.WithError(err).Warn("clone failed")
			return
		}
		log.WithField("dir", dest).Info("repository cloned")
	}()
}

func (c *Cloner) clone(ctx context.Context, repoURL, dest string) error {
	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		r, err := gogit.PlainOpen(dest)
		if err != nil {
			return fmt.Errorf("open existing clone: %w", err)
		}
		err = r.FetchContext(ctx, &gogit.FetchOptions{Depth: c.opts.Depth})
		if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return fmt.Errorf("fetch: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	_, err := gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{
		URL:          repoURL,
		Depth:        c.opts.Depth,
		SingleBranch: true,
	})
	if err != nil {
		_ = os.RemoveAll(dest)
		return err
	}
	return nil
}

// Wait blocks until every scheduled clone has finished.
func (c *Cloner) Wait() { c.wg.Wait() }

// Close abandons pending clones and waits for running ones to stop.
func (c *Cloner) Close() {
	c.cancel()
	c.wg.Wait()
}

// RepoDir derives "<owner>/<repo>" from a repository URL or path.
func RepoDir(repoURL string) (string, error) {
	if strings.ContainsRune(repoURL, 0) {
		return "", fmt.Errorf("invalid repository url: contains null byte")
	}
	p := repoURL
	if u, err := url.Parse(repoURL); err == nil && u.Scheme != "" {
		p = u.Path
	}
	p = strings.TrimSuffix(strings.Trim(filepath.ToSlash(p), "/"), ".git")
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("invalid repository url %q", repoURL)
	}
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return filepath.Join(parts...), nil
}
