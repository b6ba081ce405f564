package core

import (
	"github.com/leakwatch/leakwatch/internal/classify"
	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/leakwatch/leakwatch/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type Rule = types.Rule
type Mode = types.Mode
type ScanResult = types.ScanResult
type Summary = types.Summary

const (
	ModeMail        = types.ModeMail
	ModeOnlyMatch   = types.ModeOnlyMatch
	ModeNormalMatch = types.ModeNormalMatch
	ModeDefault     = types.ModeDefault
)

// ParseMode maps a mode tag to a Mode; unknown tags become ModeDefault.
func ParseMode(s string) Mode { return types.ParseMode(s) }

// BuildQuery returns the code-search query for rule.
func BuildQuery(rule Rule) string { return engine.BuildQuery(rule) }

// Classify returns the evidence fragments rule extracts from code. Mail rules
// yield nothing here since resolving addresses needs network access.
func Classify(code string, rule Rule) []string { return classify.Match(code, rule) }
