package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"glint/internal/annot"
	"glint/internal/driver"
	"glint/internal/pipeline"
	"glint/internal/render"
)

// errCheckFailed is returned when a document failed or reported errors.
// The output already explains why, so main only sets the exit status.
var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|dir>...",
	Short: "Annotate documents and report errors",
	Long: `Check runs every .gohtml and .go document through the annotation pipeline
and prints hovers, errors, queries and completions at their positions in the
original document. Directories are walked recursively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("variant", "", "treat every document as this variant instead of guessing from the extension")
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|yaml|msgpack)")
	checkCmd.Flags().StringSlice("kinds", nil, "only report these node kinds (hover,query,error,completion,tag,highlight)")
	checkCmd.Flags().Bool("no-errors", false, "do not report error nodes")
	checkCmd.Flags().StringArray("compiler", nil, "compiler option as key=value (repeatable)")
	checkCmd.Flags().Int("jobs", 0, "max parallel documents (0=auto)")
	checkCmd.Flags().String("progress", "off", "show progress UI (auto|on|off)")
	checkCmd.Flags().Bool("context", true, "print the source line under each node")
	checkCmd.Flags().Bool("fullpath", false, "print absolute paths")
	checkCmd.Flags().Int("max", 0, "max nodes per document (0=unlimited)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	cfg := configFrom(cmd.Context())
	flags := cmd.Flags()

	formatName, err := flags.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if !flags.Changed("format") && cfg.Output.Format != "" {
		formatName = cfg.Output.Format
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}

	kindNames, err := flags.GetStringSlice("kinds")
	if err != nil {
		return fmt.Errorf("failed to get kinds flag: %w", err)
	}
	kinds, err := parseKinds(kindNames)
	if err != nil {
		return err
	}

	compilerFlags, err := flags.GetStringArray("compiler")
	if err != nil {
		return fmt.Errorf("failed to get compiler flag: %w", err)
	}
	runOptions, err := parseCompilerFlags(compilerFlags)
	if err != nil {
		return err
	}

	variant, err := flags.GetString("variant")
	if err != nil {
		return fmt.Errorf("failed to get variant flag: %w", err)
	}
	noErrors, err := flags.GetBool("no-errors")
	if err != nil {
		return fmt.Errorf("failed to get no-errors flag: %w", err)
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if !flags.Changed("jobs") {
		jobs = cfg.Check.Jobs
	}
	progressFlag, err := flags.GetString("progress")
	if err != nil {
		return fmt.Errorf("failed to get progress flag: %w", err)
	}
	progressMode, err := readUIMode(progressFlag)
	if err != nil {
		return fmt.Errorf("--progress: %w", err)
	}
	showContext, err := flags.GetBool("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	fullPath, err := flags.GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxNodes, err := flags.GetInt("max")
	if err != nil {
		return fmt.Errorf("failed to get max flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	p := pipeline.New(pipeline.Options{
		DefaultVariant:  cfg.Pipeline.DefaultVariant,
		CompilerOptions: cfg.Compiler,
	})
	opts := driver.CheckOptions{
		Pipeline: p,
		Variant:  variant,
		Run: pipeline.RunOptions{
			CompilerOptions: runOptions,
			NoErrors:        noErrors,
			Timings:         showTimings,
		},
		Jobs:    jobs,
		BaseDir: baseDir,
	}

	var res *driver.CheckResult
	if shouldUseTUI(progressMode) && format == render.FormatPretty {
		files, listErr := driver.ListDocuments(args)
		if listErr != nil {
			return listErr
		}
		res, err = runCheckWithUI(cmd.Context(), "checking", files, opts)
	} else {
		res, err = driver.Check(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}

	docs := documentsOf(res, kinds)
	renderOpts := render.Opts{
		Color:    !color.NoColor,
		PathMode: render.PathModeAuto,
		BaseDir:  baseDir,
		Context:  showContext,
		Timings:  showTimings,
		Max:      maxNodes,
	}
	if fullPath {
		renderOpts.PathMode = render.PathModeAbsolute
	}

	out := cmd.OutOrStdout()
	if quiet && format == render.FormatPretty {
		err = render.Pretty(out, docs, renderOpts)
	} else {
		err = render.Write(out, format, docs, renderOpts)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if showTimings {
		printCheckTimings(cmd.ErrOrStderr(), res)
	}
	if res.Failed() {
		return errCheckFailed
	}
	return nil
}

// documentsOf converts driver results into render documents, dropping
// nodes whose kind is not in kinds.
func documentsOf(res *driver.CheckResult, kinds []annot.Kind) []render.Document {
	docs := make([]render.Document, 0, len(res.Files))
	for _, fr := range res.Files {
		doc := render.Document{
			Path:    fr.Path,
			Variant: fr.Variant,
			Result:  fr.Result,
			Err:     fr.Err,
		}
		if f, ok := res.FileSet.GetByPath(fr.Path); ok {
			doc.File = f
		}
		if doc.Result != nil && len(kinds) > 0 {
			doc.Result.Filter(kinds...)
		}
		docs = append(docs, doc)
	}
	return docs
}

func parseKinds(names []string) ([]annot.Kind, error) {
	kinds := make([]annot.Kind, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		k, ok := annot.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("--kinds: unknown kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
