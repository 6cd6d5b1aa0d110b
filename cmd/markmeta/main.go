// Package main provides markmeta, a small tool for inspecting and
// editing front-matter document metadata.
package main

import (
	"os"
	"strings"

	"github.com/calvinalkan/markmeta/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args, env))
}
