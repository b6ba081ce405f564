package mail

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/leakwatch/leakwatch/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var addressPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+`)

// Options configures a Resolver.
type Options struct {
	// PublicServices lists webmail hosts whose addresses are never reported.
	PublicServices []string
	Prober         Prober
	Timeout        time.Duration
	// Workers bounds concurrent probes across every caller of the resolver.
	Workers  int
	CacheTTL time.Duration
	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
}

// Resolver extracts non-public mail addresses from code and describes the
// organisation behind each one by the title of its web site.
type Resolver struct {
	public  map[string]struct{}
	prober  Prober
	timeout time.Duration
	sem     *semaphore.Weighted
	titles  *ttlcache.Cache[string, string]
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewResolver(opts Options) *Resolver {
	public := make(map[string]struct{}, len(opts.PublicServices))
	for _, s := range opts.PublicServices {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			public[s] = struct{}{}
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultProbeTimeout
	}
	if opts.Prober == nil {
		opts.Prober = NewHTTPProber(opts.Timeout, false)
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Resolver{
		public:  public,
		prober:  opts.Prober,
		timeout: opts.Timeout,
		sem:     semaphore.NewWeighted(int64(opts.Workers)),
		titles: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](opts.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

// IsPublic reports whether host belongs to a public mail service.
func (r *Resolver) IsPublic(host string) bool {
	_, ok := r.public[strings.ToLower(strings.TrimSpace(host))]
	return ok
}

type candidate struct {
	address string
	target  Target
	title   string
}

// Resolve returns one "<address> <url> <title>" fragment per unique
// non-public address found in code, in order of first appearance.
func (r *Resolver) Resolve(ctx context.Context, code string) []string {
	var cands []*candidate
	seen := map[string]bool{}
	for _, m := range addressPattern.FindAllString(code, -1) {
		address := strings.TrimRight(strings.ToLower(strings.TrimSpace(m)), ".")
		if seen[address] {
			r.log.WithField("mail", address).Debug("mail already processed")
			continue
		}
		host := hostOf(address)
		if r.IsPublic(host) {
			r.log.WithField("mail", address).Debug("public mail service, skip")
			continue
		}
		seen[address] = true
		cands = append(cands, &candidate{address: address, target: TargetFor(host)})
	}
	if len(cands) == 0 {
		return nil
	}

	titles := map[string]string{}
	var urls []string
	for _, c := range cands {
		if c.target.Inner {
			r.metrics.Probe("inner_ip")
			continue
		}
		if _, ok := titles[c.target.URL]; !ok {
			titles[c.target.URL] = ""
			urls = append(urls, c.target.URL)
		}
	}
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			t := r.title(ctx, url)
			mu.Lock()
			titles[url] = t
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	for _, c := range cands {
		if c.target.Inner {
			c.title = InnerIPMarker
			continue
		}
		c.title = titles[c.target.URL]
	}

	out := make([]string, 0, len(cands))
	for _, c := range cands {
		frag := fmt.Sprintf("%s %s %s", c.address, c.target.URL, c.title)
		r.log.WithField("mail", c.address).Info(" - " + frag)
		out = append(out, frag)
	}
	return out
}

func (r *Resolver) title(ctx context.Context, url string) string {
	if item := r.titles.Get(url); item != nil {
		r.metrics.Probe("cached")
		return item.Value()
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	defer r.sem.Release(1)

	pctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	body, err := r.prober.Probe(pctx, url)
	if err != nil {
		r.log.WithError(err).WithField("url", url).Warn("title probe failed")
		r.metrics.Probe("error")
		// Failures are not cached.
		return fmt.Sprintf("<%v>", err)
	}
	t := ExtractTitle(body)
	if t == ParseErrorTitle {
		r.metrics.Probe("parse_error")
	} else {
		r.metrics.Probe("ok")
	}
	r.titles.Set(url, t, ttlcache.DefaultTTL)
	return t
}
