// Package main is the entry point for the mreval CLI.
package main

import "mreval.dev/pkg/mreval/cmd"

func main() {
	cmd.Execute()
}
