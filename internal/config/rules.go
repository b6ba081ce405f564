package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/leakwatch/leakwatch/internal/types"
	"gopkg.in/yaml.v3"
)

// RuleFile is the rule file shape: rules grouped by purpose and company.
type RuleFile struct {
	Groups []RuleGroup `yaml:"groups"`
}

type RuleGroup struct {
	Name    string      `yaml:"name"`
	Corp    string      `yaml:"corp"`
	Enabled *bool       `yaml:"enabled"`
	Rules   []RuleEntry `yaml:"rules"`
}

type RuleEntry struct {
	Keyword   string `yaml:"keyword"`
	Extension string `yaml:"extension"`
	Mode      string `yaml:"mode"`
}

// LoadRules reads the rule file at path and returns the rules of every
// enabled group in file order.
func LoadRules(path string) ([]types.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(b)
}

// ParseRules decodes a rule file. Problems across all groups are reported
// together in a *ValidationError.
func ParseRules(b []byte) ([]types.Rule, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	v := &ValidationError{}
	var rules []types.Rule
	for gi, g := range rf.Groups {
		if g.Enabled != nil && !*g.Enabled {
			continue
		}
		for ri, r := range g.Rules {
			kw := strings.TrimSpace(r.Keyword)
			if kw == "" || kw == `""` {
				v.Add("groups[%d].rules[%d]: keyword is required", gi, ri)
				continue
			}
			rules = append(rules, types.Rule{
				Keyword:   kw,
				Extension: strings.TrimSpace(r.Extension),
				Mode:      types.ParseMode(r.Mode),
				Group:     g.Name,
				Corp:      g.Corp,
			})
		}
	}
	if len(v.Problems) > 0 {
		return nil, v
	}
	return rules, nil
}
