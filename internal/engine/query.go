package engine

import (
	"strings"

	"github.com/leakwatch/leakwatch/internal/types"
)

// BuildQuery returns the search query for a rule: the keyword followed by one
// "extension:<ext> " clause per comma-separated extension.
func BuildQuery(rule types.Rule) string {
	var ext strings.Builder
	if strings.TrimSpace(rule.Extension) != "" {
		for _, e := range strings.Split(rule.Extension, ",") {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			ext.WriteString("extension:")
			ext.WriteString(e)
			ext.WriteByte(' ')
		}
	}
	return rule.Keyword + " " + ext.String()
}

// PageCount returns how many pages a rule fetches: one when the results fit
// in a single page, maxPages otherwise.
func PageCount(total, pageSize, maxPages int) int {
	if total < pageSize {
		return 1
	}
	return maxPages
}
