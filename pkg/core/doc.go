// Package core provides a small, stable facade over leakwatch's internal
// pipeline for external integrations: building search queries and
// classifying file content against a rule, without a search provider.
//
// Example:
//
//	rule := core.Rule{Keyword: "password", Mode: core.ModeOnlyMatch}
//	fragments := core.Classify("db_password=123", rule)
//	query := core.BuildQuery(rule)
package core
