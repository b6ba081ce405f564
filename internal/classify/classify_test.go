package classify

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		want    []string
	}{
		{name: "single", keyword: "password", want: []string{"password"}},
		{name: "unquoted spaces split", keyword: "smtp password", want: []string{"smtp", "password"}},
		{name: "double space ignored", keyword: "smtp  password", want: []string{"smtp", "password"}},
		{name: "quoted phrase", keyword: `"corp.com" smtp`, want: []string{"corp.com smtp"}},
		{name: "quoted single", keyword: `"secret_key"`, want: []string{"secret_key"}},
		{name: "empty", keyword: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.keyword))
		})
	}
}

func TestOnlyMatch_SingleLine(t *testing.T) {
	rule := types.Rule{Keyword: "password", Mode: types.ModeOnlyMatch}
	got := Match("db_password=123", rule)
	assert.Equal(t, []string{"db_password=123"}, got)
}

func TestOnlyMatch_DuplicatePerKeyword(t *testing.T) {
	rule := types.Rule{Keyword: "user password", Mode: types.ModeOnlyMatch}
	code := "host=x\nuser_password=1\nuser=admin\n"
	got := Match(code, rule)
	assert.Equal(t, []string{"user_password=1", "user_password=1", "user=admin"}, got)
}

func TestOnlyMatch_NoMatch(t *testing.T) {
	rule := types.Rule{Keyword: "token", Mode: types.ModeOnlyMatch}
	assert.Empty(t, Match("a\nb\nc", rule))
}

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%d", i)
	}
	return lines
}

func TestNormalMatch_Window(t *testing.T) {
	lines := numbered(10)
	lines[5] = "secret=1"
	rule := types.Rule{Keyword: "secret", Mode: types.ModeNormalMatch}
	got := Match(strings.Join(lines, "\n"), rule)
	assert.Equal(t, []string{"line2", "line3", "line4", "secret=1", "line6", "line7", "line8"}, got)
}

func TestNormalMatch_Boundaries(t *testing.T) {
	code := "secret=1\nb\nc\nd\ne\nf\nsecret=2"
	rule := types.Rule{Keyword: "secret", Mode: types.ModeNormalMatch}
	got := Match(code, rule)
	assert.Equal(t, []string{"secret=1", "b", "c", "d", "e", "f", "secret=2"}, got)
}

func TestNormalMatch_BlankLinesExtendReach(t *testing.T) {
	code := strings.Join([]string{
		"a", "b", "", "c", "   ", "", "d",
		"secret=1",
		"", "e", "\t", "f", "", "g", "h",
	}, "\n")
	rule := types.Rule{Keyword: "secret", Mode: types.ModeNormalMatch}
	got := Match(code, rule)
	assert.Equal(t, []string{"b", "c", "d", "secret=1", "e", "f", "g"}, got)
}

func TestNormalMatch_OverlappingWindowsUnion(t *testing.T) {
	lines := numbered(12)
	lines[4] = "key=1"
	lines[6] = "key=2"
	rule := types.Rule{Keyword: "key", Mode: types.ModeNormalMatch}
	got := Match(strings.Join(lines, "\n"), rule)
	want := []string{"line1", "line2", "line3", "key=1", "line5", "key=2", "line7", "line8", "line9"}
	assert.Equal(t, want, got)
}

func TestNormalMatch_DuplicateTextAtDistinctIndexes(t *testing.T) {
	lines := numbered(20)
	lines[2] = "dup"
	lines[3] = "key=1"
	lines[15] = "dup"
	lines[16] = "key=2"
	rule := types.Rule{Keyword: "key", Mode: types.ModeNormalMatch}
	got := Match(strings.Join(lines, "\n"), rule)
	count := 0
	for _, l := range got {
		if l == "dup" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestNormalMatch_EmittedIndexesUnique(t *testing.T) {
	// Every line is unique and every third line triggers, so any repeated
	// index would show up as a repeated string.
	lines := numbered(40)
	for i := 0; i < len(lines); i += 3 {
		lines[i] = fmt.Sprintf("pwd%d", i)
	}
	rule := types.Rule{Keyword: "pwd", Mode: types.ModeNormalMatch}
	got := Match(strings.Join(lines, "\n"), rule)
	seen := map[string]bool{}
	for _, l := range got {
		require.False(t, seen[l], "line %q emitted twice", l)
		seen[l] = true
	}
	assert.Equal(t, lines, got)
}

func TestDefaultMode_First20Lines(t *testing.T) {
	lines := numbered(30)
	rule := types.Rule{Keyword: "nothing-matches", Mode: types.ParseMode("weird")}
	got := Match(strings.Join(lines, "\n"), rule)
	assert.Equal(t, lines[:20], got)
}

func TestDefaultMode_ShortFile(t *testing.T) {
	rule := types.Rule{Keyword: "x", Mode: types.ModeDefault}
	assert.Equal(t, []string{"a", "b"}, Match("a\r\nb\n", rule))
}

func TestPreprocess_StripsImgTags(t *testing.T) {
	rule := types.Rule{Keyword: "logo", Mode: types.ModeOnlyMatch}
	got := Match(`<img src="logo.png">`, rule)
	assert.Equal(t, []string{` src="logo.png">`}, got)
}

func TestClassify_Idempotent(t *testing.T) {
	code := "a\nsecret=1\n\nb\nsecret=2\nc"
	for _, mode := range []types.Mode{types.ModeOnlyMatch, types.ModeNormalMatch, types.ModeDefault} {
		rule := types.Rule{Keyword: "secret", Mode: mode}
		c := New(nil)
		first := c.Classify(context.Background(), code, rule)
		second := c.Classify(context.Background(), code, rule)
		assert.Equal(t, first, second, "mode %s", mode)
	}
}

type stubMail struct {
	got string
}

func (s *stubMail) Resolve(_ context.Context, code string) []string {
	s.got = code
	return []string{"ops@corp.example http://www.corp.example Corp"}
}

func TestClassify_MailDelegates(t *testing.T) {
	mr := &stubMail{}
	c := New(mr)
	rule := types.Rule{Keyword: "password", Mode: types.ModeMail}
	got := c.Classify(context.Background(), `<img a> ops@corp.example password`, rule)
	assert.Equal(t, []string{"ops@corp.example http://www.corp.example Corp"}, got)
	assert.Equal(t, ` a> ops@corp.example password`, mr.got)
}

func TestClassify_MailWithoutResolver(t *testing.T) {
	rule := types.Rule{Keyword: "x", Mode: types.ModeMail}
	assert.Empty(t, New(nil).Classify(context.Background(), "a@b.example", rule))
	assert.Empty(t, Match("a@b.example", rule))
}
