package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"glint/internal/driver"
	"glint/internal/pipeline"
	"glint/internal/srcmap"
)

var mapCmd = &cobra.Command{
	Use:   "map [flags] <file>",
	Short: "Print the Go file and source map derived from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runMap,
}

func init() {
	mapCmd.Flags().String("variant", "", "document variant (default: guessed from the extension)")
	mapCmd.Flags().String("show", "code", "what to print (code|map|segments)")
}

func runMap(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	path := args[0]
	variant, err := cmd.Flags().GetString("variant")
	if err != nil {
		return fmt.Errorf("failed to get variant flag: %w", err)
	}
	show, err := cmd.Flags().GetString("show")
	if err != nil {
		return fmt.Errorf("failed to get show flag: %w", err)
	}
	show = strings.ToLower(strings.TrimSpace(show))
	switch show {
	case "code", "map", "segments":
	default:
		return fmt.Errorf("--show: unknown value %q (expected code|map|segments)", show)
	}
	if variant == "" {
		variant, _ = driver.VariantFor(path)
	}

	// #nosec G304 -- path is provided by the user
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := configFrom(cmd.Context())
	p := pipeline.New(pipeline.Options{DefaultVariant: cfg.Pipeline.DefaultVariant})
	out, err := p.Transpile(cmd.Context(), string(content), variant)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch show {
	case "map":
		_, err = fmt.Fprintln(w, out.Map.String())
		return err
	case "segments":
		table, err := srcmap.Parse(out.Map)
		if err != nil {
			return err
		}
		return printSegments(w, table)
	}
	_, err = io.WriteString(w, out.Code)
	return err
}

// printSegments lists mapping segments with 1-based positions.
func printSegments(w io.Writer, table *srcmap.Table) error {
	synthetic := color.New(color.Faint)
	sources := table.Sources()
	for _, e := range table.Entries() {
		var err error
		if e.Synthetic() {
			_, err = fmt.Fprintf(w, "%d:%d\t%s\n", e.GenLine+1, e.GenCol+1, synthetic.Sprint("synthetic"))
		} else {
			name := "?"
			if e.Source < len(sources) {
				name = sources[e.Source]
			}
			_, err = fmt.Fprintf(w, "%d:%d\t%s:%d:%d\n", e.GenLine+1, e.GenCol+1, name, e.OrigLine+1, e.OrigCol+1)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
