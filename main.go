package main

import "github.com/leakwatch/leakwatch/cmd/leakwatch"

func main() { leakwatch.Execute() }
