package search

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v30/github"
	"github.com/leakwatch/leakwatch/internal/types"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 30 * time.Second

// GitHubOptions configures a GitHub client.
type GitHubOptions struct {
	Token   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests). It must
	// end with a slash.
	BaseURL string
}

// GitHub implements Client over the GitHub REST API.
type GitHub struct {
	client     *github.Client
	credential string
}

func NewGitHub(ctx context.Context, opts GitHubOptions) (*GitHub, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	var hc *http.Client
	if opts.Token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = opts.Timeout

	gh := github.NewClient(hc)
	gh.UserAgent = "leakwatch"
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}
	return &GitHub{client: gh, credential: MaskCredential(opts.Token)}, nil
}

// Credential returns the masked token identifying this client in logs.
func (g *GitHub) Credential() string { return g.credential }

func (g *GitHub) SearchCode(ctx context.Context, query string, opts Options) (*Page, error) {
	res, resp, err := g.client.Search.Code(ctx, query, &github.SearchOptions{
		Sort:  "indexed",
		Order: "desc",
		ListOptions: github.ListOptions{
			Page:    opts.Page + 1,
			PerPage: opts.PerPage,
		},
	})
	if err != nil {
		return nil, g.wrap("search_code", resp, err)
	}
	page := &Page{Total: res.GetTotal(), Quota: quotaOf(resp)}
	for _, cr := range res.CodeResults {
		repo := cr.GetRepository()
		page.Hits = append(page.Hits, types.Hit{
			URL:                cr.GetHTMLURL(),
			SHA:                cr.GetSHA(),
			Path:               cr.GetPath(),
			RepositoryFullName: strings.TrimSpace(repo.GetFullName()),
			RepositoryURL:      repo.GetHTMLURL(),
		})
	}
	return page, nil
}

func (g *GitHub) Content(ctx context.Context, hit types.Hit) ([]byte, error) {
	if hit.Content != nil {
		return hit.Content, nil
	}
	owner, repo, ok := strings.Cut(hit.RepositoryFullName, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("content: invalid repository name %q", hit.RepositoryFullName)
	}
	if hit.SHA == "" {
		fc, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, hit.Path, nil)
		if err != nil {
			return nil, g.wrap("get_contents", resp, err)
		}
		if fc == nil {
			return nil, fmt.Errorf("content: %s/%s is not a file", hit.RepositoryFullName, hit.Path)
		}
		s, err := fc.GetContent()
		if err != nil {
			return nil, fmt.Errorf("content: decode %s: %w", hit.Path, err)
		}
		return []byte(s), nil
	}
	blob, resp, err := g.client.Git.GetBlob(ctx, owner, repo, hit.SHA)
	if err != nil {
		return nil, g.wrap("get_blob", resp, err)
	}
	return decodeBlob(blob.GetContent(), blob.GetEncoding())
}

func (g *GitHub) RateLimit(ctx context.Context) (Quota, error) {
	limits, resp, err := g.client.RateLimits(ctx)
	if err != nil {
		return Quota{}, g.wrap("rate_limit", resp, err)
	}
	if limits == nil || limits.Search == nil {
		return Quota{}, errors.New("rate_limit: no search quota in response")
	}
	return quotaFromRate(*limits.Search), nil
}

func decodeBlob(content, encoding string) ([]byte, error) {
	switch encoding {
	case "base64":
		b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("content: decode blob: %w", err)
		}
		return b, nil
	case "", "utf-8":
		return []byte(content), nil
	default:
		return nil, fmt.Errorf("content: unsupported blob encoding %q", encoding)
	}
}

func quotaOf(resp *github.Response) Quota {
	if resp == nil {
		return Quota{}
	}
	return quotaFromRate(resp.Rate)
}

func quotaFromRate(r github.Rate) Quota {
	return Quota{Limit: r.Limit, Remaining: r.Remaining, Reset: r.Reset.Time}
}

func (g *GitHub) wrap(op string, resp *github.Response, err error) error {
	pe := &ProviderError{Op: op, Credential: g.credential, Quota: quotaOf(resp), Message: err.Error()}
	if resp != nil && resp.Response != nil {
		pe.Status = resp.StatusCode
	}

	var (
		rl    *github.RateLimitError
		abuse *github.AbuseRateLimitError
		er    *github.ErrorResponse
	)
	switch {
	case IsTimeout(err):
		pe.Err = fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.As(err, &rl):
		pe.Message = rl.Message
		pe.Quota = quotaFromRate(rl.Rate)
		pe.Err = fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case errors.As(err, &abuse):
		pe.Message = abuse.Message
		pe.Err = fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case errors.As(err, &er):
		pe.Message = er.Message
		pe.Err = err
	default:
		pe.Err = err
	}
	return pe
}
