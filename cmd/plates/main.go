// Package main is the entry point for the plates CLI.
package main

import "github.com/mzansiplatess/plates-cli/internal/cli"

func main() {
	cli.Execute()
}
