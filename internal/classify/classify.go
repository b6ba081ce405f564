package classify

import (
	"context"
	"strings"

	"github.com/leakwatch/leakwatch/internal/types"
)

const (
	contextLines = 3
	defaultLines = 20
)

// MailResolver extracts address fragments for mail-mode rules.
type MailResolver interface {
	Resolve(ctx context.Context, code string) []string
}

// Classifier dispatches a hit to the algorithm of the rule's mode.
type Classifier struct {
	Mail MailResolver
}

// New returns a Classifier that delegates mail-mode rules to mr.
func New(mr MailResolver) *Classifier {
	return &Classifier{Mail: mr}
}

// Classify returns the fragments extracted from code for rule. An empty
// result means the hit did not match.
func (c *Classifier) Classify(ctx context.Context, code string, rule types.Rule) []string {
	code = Preprocess(code)
	if rule.Mode == types.ModeMail {
		if c == nil || c.Mail == nil {
			return nil
		}
		return c.Mail.Resolve(ctx, code)
	}
	return match(code, rule)
}

// Match runs the non-mail modes. Mail-mode rules yield no fragments here.
func Match(code string, rule types.Rule) []string {
	if rule.Mode == types.ModeMail {
		return nil
	}
	return match(Preprocess(code), rule)
}

// Preprocess strips "<img" so broken image tags do not leak into fragments
// or title heuristics.
func Preprocess(code string) string {
	return strings.ReplaceAll(code, "<img", "")
}

func match(code string, rule types.Rule) []string {
	lines := splitLines(code)
	switch rule.Mode {
	case types.ModeOnlyMatch:
		return onlyMatch(lines, Keywords(rule.Keyword))
	case types.ModeNormalMatch:
		return normalMatch(lines, Keywords(rule.Keyword))
	default:
		if len(lines) > defaultLines {
			lines = lines[:defaultLines]
		}
		return append([]string(nil), lines...)
	}
}

// Keywords resolves a rule keyword into the literals tested against each
// line. An unquoted keyword containing spaces is split into independent
// keywords; a quoted one is a single phrase with the quotes removed.
func Keywords(keyword string) []string {
	if !strings.Contains(keyword, `"`) && strings.Contains(keyword, " ") {
		return strings.Fields(keyword)
	}
	kw := strings.ReplaceAll(keyword, `"`, "")
	if kw == "" {
		return nil
	}
	return []string{kw}
}

func onlyMatch(lines, keywords []string) []string {
	var out []string
	for _, line := range lines {
		for _, kw := range keywords {
			if strings.Contains(line, kw) {
				out = append(out, line)
			}
		}
	}
	return out
}

// normalMatch emits the union of the context windows around every matching
// line, in source order, each line at most once.
func normalMatch(lines, keywords []string) []string {
	emitted := make([]bool, len(lines))
	matched := false
	for idx, line := range lines {
		if !containsAny(line, keywords) {
			continue
		}
		matched = true
		emitted[idx] = true
		for i, taken := idx-1, 0; i >= 0 && taken < contextLines; i-- {
			if isBlank(lines[i]) {
				continue
			}
			emitted[i] = true
			taken++
		}
		for i, taken := idx+1, 0; i < len(lines) && taken < contextLines; i++ {
			if isBlank(lines[i]) {
				continue
			}
			emitted[i] = true
			taken++
		}
	}
	if !matched {
		return nil
	}
	var out []string
	for i, ok := range emitted {
		if ok {
			out = append(out, lines[i])
		}
	}
	return out
}

func containsAny(line string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// splitLines splits on \n, \r\n and \r without producing a trailing empty
// line for a terminating newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			out = append(out, s[start:i])
			start = i + 1
		case '\r':
			out = append(out, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
