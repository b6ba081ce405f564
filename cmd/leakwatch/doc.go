// Package leakwatch provides the command-line interface for leakwatch. It
// wires configuration, the GitHub search client and the scan engine
// together and exposes them as subcommands (scan, verify, rules, ...).
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/leakwatch/leakwatch/cmd/leakwatch"
//	func main() { leakwatch.Execute() }
package leakwatch
