package leakwatch

import (
	"os"
	"strings"
	"time"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/engine"
)

// settings is the effective configuration of one command after CLI flags,
// environment, local and global files were merged.
type settings struct {
	File config.FileConfig

	Tokens        []string
	RulesPath     string
	APIURL        string
	Engine        engine.Config
	RatePerMinute int
	QuotaWait     time.Duration
	ProbeTimeout  time.Duration
	ProbeWorkers  int
	ToReview      bool
	OutputDir     string
	Audit         bool
}

// loadFiles returns the local and global settings files. An explicit path
// replaces both; missing files are not an error.
func loadFiles(path string) (local, global config.FileConfig, err error) {
	if path != "" {
		local, err = config.LoadFile(path)
		return local, global, err
	}
	if wd, err := os.Getwd(); err == nil {
		if c, err := config.LoadLocal(wd); err == nil {
			local = c
		}
	}
	if c, err := config.LoadGlobal(); err == nil {
		global = c
	}
	return local, global, nil
}

// envTokens reads LEAKWATCH_TOKENS (comma separated), falling back to
// GITHUB_TOKEN.
func envTokens(getenv func(string) string) []string {
	if v := getenv("LEAKWATCH_TOKENS"); strings.TrimSpace(v) != "" {
		return splitList(v)
	}
	if v := strings.TrimSpace(getenv("GITHUB_TOKEN")); v != "" {
		return []string{v}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge layers cli over local over global. Lists are taken whole from the
// first layer that sets them.
func merge(cli, local, global config.FileConfig) config.FileConfig {
	return config.FileConfig{
		Tokens:              pickList(cli.Tokens, local.Tokens, global.Tokens),
		Rules:               pick(cli.Rules, local.Rules, global.Rules),
		APIURL:              pick(cli.APIURL, local.APIURL, global.APIURL),
		PageSize:            pick(cli.PageSize, local.PageSize, global.PageSize),
		MaxPages:            pick(cli.MaxPages, local.MaxPages, global.MaxPages),
		Workers:             pick(cli.Workers, local.Workers, global.Workers),
		SearchRatePerMinute: pick(cli.SearchRatePerMinute, local.SearchRatePerMinute, global.SearchRatePerMinute),
		QuotaWait:           pick(cli.QuotaWait, local.QuotaWait, global.QuotaWait),
		PageTimeout:         pick(cli.PageTimeout, local.PageTimeout, global.PageTimeout),
		ProbeTimeout:        pick(cli.ProbeTimeout, local.ProbeTimeout, global.ProbeTimeout),
		ProbeWorkers:        pick(cli.ProbeWorkers, local.ProbeWorkers, global.ProbeWorkers),
		ReportToReview:      pick(cli.ReportToReview, local.ReportToReview, global.ReportToReview),
		OutputDir:           pick(cli.OutputDir, local.OutputDir, global.OutputDir),
		Audit:               pick(cli.Audit, local.Audit, global.Audit),

		PublicMailServices:     pickList(cli.PublicMailServices, local.PublicMailServices, global.PublicMailServices),
		ExcludeRepositoryRules: pickList(cli.ExcludeRepositoryRules, local.ExcludeRepositoryRules, global.ExcludeRepositoryRules),
		ExcludeRepositoryGlobs: pickList(cli.ExcludeRepositoryGlobs, local.ExcludeRepositoryGlobs, global.ExcludeRepositoryGlobs),
		ExcludeCodesRules:      pickList(cli.ExcludeCodesRules, local.ExcludeCodesRules, global.ExcludeCodesRules),

		HashStore: pick(cli.HashStore, local.HashStore, global.HashStore),
		Clone:     pick(cli.Clone, local.Clone, global.Clone),
	}
}

// resolve merges the layers, validates the result and applies defaults.
// Tokens from the environment rank between the CLI and the files.
func resolve(cli, local, global config.FileConfig, env []string) (settings, error) {
	fc := merge(cli, local, global)
	fc.Tokens = pickList(cli.Tokens, env, local.Tokens, global.Tokens)
	if err := fc.Validate(); err != nil {
		return settings{}, err
	}

	s := settings{
		File:          fc,
		Tokens:        fc.Tokens,
		RulesPath:     valueOr(fc.Rules, ""),
		APIURL:        valueOr(fc.APIURL, ""),
		RatePerMinute: valueOr(fc.SearchRatePerMinute, config.DefaultSearchRatePerMinute),
		ProbeWorkers:  valueOr(fc.ProbeWorkers, config.DefaultProbeWorkers),
		ToReview:      valueOr(fc.ReportToReview, false),
		OutputDir:     valueOr(fc.OutputDir, config.DefaultOutputDir),
		Audit:         valueOr(fc.Audit, true),
		Engine: engine.Config{
			PageSize: valueOr(fc.PageSize, config.DefaultPageSize),
			MaxPages: valueOr(fc.MaxPages, config.DefaultMaxPages),
			Workers:  valueOr(fc.Workers, config.DefaultWorkers),
		},
	}
	// Durations were validated above.
	s.QuotaWait, _ = config.ParseDuration(valueOr(fc.QuotaWait, ""), 0)
	s.Engine.PageTimeout, _ = config.ParseDuration(valueOr(fc.PageTimeout, ""), config.DefaultPageTimeout)
	s.ProbeTimeout, _ = config.ParseDuration(valueOr(fc.ProbeTimeout, ""), config.DefaultProbeTimeout)
	return s, nil
}

// pick returns the first non-nil value.
func pick[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// pickList returns the first non-nil list. An empty, non-nil list wins and
// disables the defaults behind it.
func pickList(vals ...[]string) []string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
