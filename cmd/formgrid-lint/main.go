// Command formgrid-lint checks OpenAPI documents for x-formgrid extensions
// the schema importer does not understand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-formgrid/internal/openapi/parser"
)

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint OpenAPI documents for unsupported formgrid extensions.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"configs/channelpartner.openapi.yaml"}
	}

	ctx := context.Background()
	failed := false
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations, err := parser.Lint(ctx, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, v)
		}
		failed = failed || len(violations) > 0
	}
	if failed {
		os.Exit(1)
	}
}
