// Package classify turns the raw text of one search hit into match fragments
// according to a rule's matching mode. Mail-mode rules are delegated to a
// MailResolver; every other mode is a pure function of (code, rule).
package classify
