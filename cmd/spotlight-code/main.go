// Command spotlight-code prints the spotlight component template, optionally
// highlighted or copied to the clipboard.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/codegen"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("spotlight-code", flag.ContinueOnError)
	flags.SetOutput(stderr)
	format := flags.String("format", string(codegen.FormatText), "output format: text, ansi or html")
	copyOut := flags.Bool("copy", false, "copy the plain template to the clipboard")
	outPath := flags.String("o", "", "write to this file instead of stdout")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	f, err := codegen.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if *copyOut {
		method, err := copyTextToClipboard(codegen.Generate())
		if err != nil {
			fmt.Fprintln(stderr, "copy failed:", err)
			return 1
		}
		fmt.Fprintf(stderr, "template copied (%s)\n", method)
		if *outPath == "" {
			return 0
		}
	}

	out := stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		defer file.Close()
		out = file
	}

	if err := codegen.Write(out, f); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
