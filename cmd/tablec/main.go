// Command tablec parses a table-lang source file and prints its syntax tree.
// Diagnostics go to stderr; the exit code is 0 on success, 1 on parse
// failure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Beefster09/table-lang/internal/ast"
	"github.com/Beefster09/table-lang/internal/config"
	"github.com/Beefster09/table-lang/internal/diag"
	"github.com/Beefster09/table-lang/internal/parser"
	"github.com/Beefster09/table-lang/internal/source"
)

func main() {
	var (
		dumpFormat string
		noColor    bool
		watch      bool
	)

	rootCmd := &cobra.Command{
		Use:           "tablec <file>",
		Short:         "Parse a table-lang source file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if watch {
				return watchLoop(path, dumpFormat, noColor)
			}
			if ok := parseOnce(path, dumpFormat, noColor); !ok {
				os.Exit(1)
			}
			return nil
		},
	}
	rootCmd.Flags().StringVar(&dumpFormat, "dump", "", "dump the tree as 'json' or 'cbor' instead of the debug printer")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored diagnostics")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reparse whenever the file changes")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tablec: %v\n", err)
		os.Exit(1)
	}
}

// parseOnce loads, parses, and prints one file. Reports success.
func parseOnce(path, dumpFormat string, noColor bool) bool {
	cfg, err := config.ForSource(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tablec: %v\n", err)
		return false
	}

	src, err := source.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tablec: unable to open file: %v\n", err)
		return false
	}

	var consoleOpts []diag.ConsoleOpt
	switch {
	case noColor || cfg.Color == "never":
		consoleOpts = append(consoleOpts, diag.WithColor(false))
	case cfg.Color == "always":
		consoleOpts = append(consoleOpts, diag.WithColor(true))
	}
	console := diag.NewConsole(os.Stderr, src, consoleOpts...)

	p := parser.New(src,
		parser.WithHandler(console.Handler()),
		parser.WithReadPaths(cfg.ReadPaths),
	)
	root := p.Execute()
	if root == nil {
		fmt.Fprintln(os.Stderr, "Parsing failed.")
		return false
	}

	switch dumpFormat {
	case "":
		ast.Print(os.Stdout, root)
	case "json", "cbor":
		dump := &ast.Dump{
			File:        src.Name(),
			Fingerprint: src.Fingerprint(),
			Root:        root,
		}
		var out []byte
		if dumpFormat == "json" {
			out, err = ast.EncodeJSON(dump)
		} else {
			out, err = ast.EncodeCBOR(dump)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "tablec: unable to encode tree: %v\n", err)
			return false
		}
		os.Stdout.Write(out)
		if dumpFormat == "json" {
			fmt.Println()
		}
	default:
		fmt.Fprintf(os.Stderr, "tablec: unknown dump format '%s'\n", dumpFormat)
		return false
	}

	fmt.Fprintln(os.Stderr, "Parsing success!")
	return true
}
