package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/leakwatch/leakwatch/internal/classify"
	"github.com/leakwatch/leakwatch/internal/dedup"
	"github.com/leakwatch/leakwatch/internal/filter"
	"github.com/leakwatch/leakwatch/internal/logging"
	"github.com/leakwatch/leakwatch/internal/metrics"
	"github.com/leakwatch/leakwatch/internal/search"
	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPageSize    = 50
	DefaultMaxPages    = 4
	DefaultPageTimeout = 30 * time.Second
)

// Reporter receives the results of every fetched page. It owns persistence,
// including recording the shas it was handed into the hash list.
type Reporter interface {
	Report(ctx context.Context, rule types.Rule, batch types.Batch) error
}

// Cloner is notified of every hit that produced a result. Clone must not
// block the scan and its failures never reach it.
type Cloner interface {
	Clone(repoURL, sha string)
}

// HashSource supplies the set of already processed shas at the start of each
// rule.
type HashSource interface {
	Hashes(ctx context.Context) (types.HashSet, error)
}

// Config controls paging and concurrency.
type Config struct {
	PageSize    int
	MaxPages    int
	Workers     int
	PageTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = DefaultPageTimeout
	}
	return c
}

// Engine runs rules against a search client. Collaborators left nil are
// skipped: no reporter discards batches, no cloner clones nothing, no hash
// source means nothing was processed before.
type Engine struct {
	cfg Config

	Client     search.Client
	Classifier *classify.Classifier
	Repository *filter.Repository
	Codes      *filter.Codes
	Reporter   Reporter
	Cloner     Cloner
	Hashes     HashSource
	Log        logrus.FieldLogger
	Metrics    *metrics.Metrics

	// OnHit, when set, is called once per hit that entered the pipeline. It
	// may be called from several rule workers at once.
	OnHit func()
}

// New returns an engine over client with the default classifier and no
// filters.
func New(cfg Config, client search.Client) *Engine {
	return &Engine{
		cfg:        cfg.withDefaults(),
		Client:     client,
		Classifier: classify.New(nil),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) logger() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logging.Discard()
}

// Scan runs one rule to completion and returns its summary. Provider errors
// end the rule and are returned in Summary.Err; page timeouts skip the page.
func (e *Engine) Scan(ctx context.Context, rule types.Rule) types.Summary {
	sum := types.Summary{Rule: rule, Query: BuildQuery(rule)}
	log := e.logger().WithField("rule", rule.Keyword)

	sum = e.scan(ctx, rule, sum, log)
	switch {
	case sum.Err != nil:
		e.Metrics.Rule("failed")
		log.WithError(sum.Err).Error("rule failed")
	case sum.Aborted:
		e.Metrics.Rule("aborted")
		log.WithField("processed", sum.Processed).Info("rule keeps returning processed content, skipped")
	default:
		e.Metrics.Rule("completed")
		log.WithFields(logrus.Fields{"confirmed": sum.Confirmed, "to_review": sum.ToReview}).Info("rule completed")
	}
	return sum
}

func (e *Engine) scan(ctx context.Context, rule types.Rule, sum types.Summary, log logrus.FieldLogger) types.Summary {
	log.WithField("query", sum.Query).Info("searching")
	first, err := e.fetch(ctx, sum.Query, 0)
	if err != nil {
		sum.Err = fmt.Errorf("search %q: %w", sum.Query, err)
		return sum
	}
	sum.Total = first.Total
	sum.Pages = PageCount(first.Total, e.cfg.PageSize, e.cfg.MaxPages)
	log.WithFields(logrus.Fields{"total": sum.Total, "pages": sum.Pages}).Info("search results")

	known := types.HashSet{}
	if e.Hashes != nil {
		known, err = e.Hashes.Hashes(ctx)
		if err != nil {
			sum.Err = fmt.Errorf("load hash list: %w", err)
			return sum
		}
	}
	tracker := dedup.NewTracker(known)

	for p := 0; p < sum.Pages; p++ {
		page := first
		if p > 0 {
			page, err = e.fetch(ctx, sum.Query, p)
			if err != nil {
				if ctx.Err() == nil && search.IsTimeout(err) && !errors.Is(err, search.ErrQuotaExceeded) {
					sum.PagesSkipped++
					e.Metrics.Page("timeout")
					log.WithField("page", p).WithError(err).Warn("page fetch timed out, skipping to the next page")
					continue
				}
				sum.Err = fmt.Errorf("fetch page %d: %w", p, err)
				e.Metrics.Page("error")
				return sum
			}
		}
		e.Metrics.Page("ok")
		if len(page.Hits) == 0 {
			log.WithField("page", p).Debug("empty page, no more results")
			break
		}

		batch := types.NewBatch(p)
		aborted := e.processPage(ctx, rule, p, page.Hits, tracker, &batch, log)
		sum.Confirmed += len(batch.Confirmed)
		sum.ToReview += len(batch.ToReview)
		if !batch.Empty() && e.Reporter != nil {
			if err := e.Reporter.Report(ctx, rule, batch); err != nil {
				log.WithField("page", p).WithError(err).Error("report failed")
			}
		}
		if aborted {
			sum.Aborted = true
			break
		}
		if err := ctx.Err(); err != nil {
			sum.Err = err
			break
		}
	}
	sum.Processed = tracker.Processed
	sum.Next = tracker.Next
	return sum
}

func (e *Engine) fetch(ctx context.Context, query string, page int) (*search.Page, error) {
	pctx, cancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancel()
	return e.Client.SearchCode(pctx, query, search.Options{Page: page, PerPage: e.cfg.PageSize})
}

// processPage runs the hits of one page through the pipeline, filling batch.
// It reports true when the rule should stop.
func (e *Engine) processPage(ctx context.Context, rule types.Rule, page int, hits []types.Hit, tr *dedup.Tracker, batch *types.Batch, log logrus.FieldLogger) bool {
	for i, hit := range hits {
		if ctx.Err() != nil {
			return false
		}
		idx := page*e.cfg.PageSize + i
		hl := log.WithFields(logrus.Fields{"page": page, "index": idx, "sha": hit.SHA})
		if e.OnHit != nil {
			e.OnHit()
		}

		res, outcome := e.processHit(ctx, rule, hit, tr, hl)
		e.Metrics.Hit(outcome)
		switch outcome {
		case metrics.OutcomeConfirmed:
			batch.Confirmed[idx] = res
		case metrics.OutcomeToReview:
			batch.ToReview[idx] = res
		}

		if tr.ShouldAbort() {
			hl.WithField("processed", tr.Processed).Info("too many processed hits, skipping the rest of the rule")
			return true
		}
	}
	return false
}

func (e *Engine) processHit(ctx context.Context, rule types.Rule, hit types.Hit, tr *dedup.Tracker, log logrus.FieldLogger) (types.ScanResult, string) {
	if tr.Seen(hit.SHA) {
		log.Info("already processed, skip")
		return types.ScanResult{}, metrics.OutcomeDedup
	}
	if e.Repository.Excluded(hit.RepositoryFullName, hit.Path) {
		log.WithField("repository", hit.RepositoryFullName).Info("excluded by repository path, skip")
		return types.ScanResult{}, metrics.OutcomeExcluded
	}

	content := hit.Content
	if content == nil {
		var err error
		if content, err = e.Client.Content(ctx, hit); err != nil {
			log.WithError(err).Warn("content unavailable, skip")
			return types.ScanResult{}, metrics.OutcomeDecode
		}
	}
	if !utf8.Valid(content) {
		log.Warn("content is not valid UTF-8, skip")
		return types.ScanResult{}, metrics.OutcomeDecode
	}
	code := string(content)

	fragments := e.Classifier.Classify(ctx, code, rule)
	if len(fragments) == 0 {
		log.Info("no match, skip")
		return types.ScanResult{}, metrics.OutcomeNoMatch
	}

	res := types.ScanResult{
		URL:            hit.URL,
		MatchFragments: fragments,
		Hash:           hit.SHA,
		Code:           code,
		Repository:     hit.RepositoryFullName,
		Path:           hit.Path,
	}
	outcome := metrics.OutcomeConfirmed
	if e.Codes.IsFalsePositive(fragments) {
		log.Info("code may be noise, added to review list")
		outcome = metrics.OutcomeToReview
	}
	if e.Cloner != nil && hit.RepositoryURL != "" {
		e.Cloner.Clone(hit.RepositoryURL, hit.SHA)
	}
	tr.Produced()
	return res, outcome
}
