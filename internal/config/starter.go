package config

import (
	"bytes"

	"github.com/leakwatch/leakwatch/internal/types"
	"gopkg.in/yaml.v3"
)

// Starter returns a settings file with every default spelled out.
func Starter() ([]byte, error) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	flag := func(b bool) *bool { return &b }
	fc := FileConfig{
		Tokens:                 []string{},
		Rules:                  str("rules.yml"),
		PageSize:               num(DefaultPageSize),
		MaxPages:               num(DefaultMaxPages),
		Workers:                num(DefaultWorkers),
		SearchRatePerMinute:    num(DefaultSearchRatePerMinute),
		QuotaWait:              str("0s"),
		PageTimeout:            str(DefaultPageTimeout.String()),
		ProbeTimeout:           str(DefaultProbeTimeout.String()),
		ProbeWorkers:           num(DefaultProbeWorkers),
		ReportToReview:         flag(false),
		OutputDir:              str(DefaultOutputDir),
		Audit:                  flag(true),
		PublicMailServices:     DefaultPublicMailServices,
		ExcludeRepositoryRules: DefaultExcludeRepositoryRules,
		ExcludeRepositoryGlobs: DefaultExcludeRepositoryGlobs,
		ExcludeCodesRules:      DefaultExcludeCodesRules,
		HashStore:              &HashStoreConfig{Driver: str("file")},
		Clone: &CloneConfig{
			Enabled: flag(false),
			Dir:     str("leakwatch-clones"),
			Workers: num(DefaultCloneWorkers),
			Depth:   num(DefaultCloneDepth),
		},
	}
	return encode(fc)
}

// StarterRules returns an example rule file.
func StarterRules() ([]byte, error) {
	rf := RuleFile{Groups: []RuleGroup{
		{
			Name: "credentials",
			Corp: "example",
			Rules: []RuleEntry{
				{Keyword: "smtp.example.com", Extension: "properties,yml,env", Mode: string(types.ModeNormalMatch)},
				{Keyword: `"example.com" password`, Mode: string(types.ModeOnlyMatch)},
			},
		},
		{
			Name: "mail",
			Corp: "example",
			Rules: []RuleEntry{
				{Keyword: "@example.com", Extension: "java,py,go", Mode: string(types.ModeMail)},
			},
		},
	}}
	return encode(rf)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
