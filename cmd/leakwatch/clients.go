package leakwatch

import (
	"context"
	"errors"

	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/leakwatch/leakwatch/internal/metrics"
	"github.com/leakwatch/leakwatch/internal/search"
	"github.com/sirupsen/logrus"
)

var errNoTokens = errors.New("no GitHub token: pass --token, set LEAKWATCH_TOKENS or GITHUB_TOKEN, or add tokens to leakwatch.yml")

// tokenClient is one configured token behind its quota guard.
type tokenClient struct {
	Credential string
	Client     *search.Guard
}

func newTokenClients(ctx context.Context, s settings, m *metrics.Metrics) ([]tokenClient, error) {
	if len(s.Tokens) == 0 {
		return nil, errNoTokens
	}
	out := make([]tokenClient, 0, len(s.Tokens))
	for _, tok := range s.Tokens {
		gh, err := search.NewGitHub(ctx, search.GitHubOptions{Token: tok, BaseURL: s.APIURL, Timeout: s.Engine.PageTimeout})
		if err != nil {
			return nil, err
		}
		out = append(out, tokenClient{
			Credential: gh.Credential(),
			Client:     search.NewGuard(gh, s.RatePerMinute, s.QuotaWait, m),
		})
	}
	return out, nil
}

// verifiedClient checks every token and rotates over the ones that passed.
func verifiedClient(ctx context.Context, tcs []tokenClient, log logrus.FieldLogger) (search.Client, error) {
	var ok []search.Client
	for _, tc := range tcs {
		passed, msg := engine.New(engine.Config{}, tc.Client).Verify(ctx)
		l := log.WithField("credential", tc.Credential)
		if !passed {
			l.Warn(msg)
			continue
		}
		l.Info(msg)
		ok = append(ok, tc.Client)
	}
	if len(ok) == 0 {
		return nil, errors.New("no token passed verification")
	}
	return search.NewRotator(ok...), nil
}
