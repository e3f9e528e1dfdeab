// Package driver checks many documents concurrently through one pipeline.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"glint/internal/annot"
	"glint/internal/observ"
	"glint/internal/pipeline"
	"glint/internal/source"
	"glint/internal/trace"
)

// ErrUnknownExtension is recorded for files whose variant cannot be guessed.
var ErrUnknownExtension = errors.New("unknown document extension")

// CheckOptions configure Check.
type CheckOptions struct {
	// Pipeline defaults to pipeline.New(pipeline.Options{}).
	Pipeline *pipeline.Pipeline
	// Variant overrides extension based detection.
	Variant string
	Run     pipeline.RunOptions
	// Jobs limits parallel documents, 0 means GOMAXPROCS.
	Jobs     int
	Progress ProgressSink
	// BaseDir is where relative paths are reported from.
	BaseDir string
}

// FileResult is the outcome for one document. Err holds load and pipeline
// failures; they do not stop other documents.
type FileResult struct {
	Path    string
	FileID  source.FileID
	Variant string
	Result  *annot.Result
	Err     error
	Elapsed time.Duration
}

// CheckResult holds everything a check produced.
type CheckResult struct {
	FileSet *source.FileSet
	Files   []FileResult
	Timing  observ.Report
}

// Failed reports whether any document failed or has error-severity nodes.
func (r *CheckResult) Failed() bool {
	for i := range r.Files {
		f := &r.Files[i]
		if f.Err != nil {
			return true
		}
		if f.Result == nil {
			continue
		}
		for _, n := range f.Result.Errors() {
			if n.Severity == annot.SevError {
				return true
			}
		}
	}
	return false
}

// Check runs every document in paths through the pipeline. The returned
// error is non-nil only when ctx is cancelled.
func Check(ctx context.Context, paths []string, opts CheckOptions) (*CheckResult, error) {
	p := opts.Pipeline
	if p == nil {
		p = pipeline.New(pipeline.Options{})
	}
	timer := observ.NewTimer()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeRun, "check", trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	listIdx := timer.Begin("list")
	files, err := ListDocuments(paths)
	timer.End(listIdx, strconv.Itoa(len(files))+" documents")
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	span.WithExtra("documents", strconv.Itoa(len(files)))

	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	results := make([]FileResult, len(files))

	loadIdx := timer.Begin("load")
	for i, path := range files {
		results[i].Path = path
		emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		results[i].Variant = opts.Variant
		if results[i].Variant == "" {
			v, ok := VariantFor(path)
			if !ok {
				results[i].Err = fmt.Errorf("%w: %s", ErrUnknownExtension, path)
				continue
			}
			results[i].Variant = v
		}
		fileID, err := fileSet.Load(path)
		if err != nil {
			// Сохраняем ошибку загрузки, остальные файлы проверяем дальше
			results[i].Err = fmt.Errorf("failed to load file: %w", err)
			continue
		}
		results[i].FileID = fileID
	}
	timer.End(loadIdx, "")

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	checkIdx := timer.Begin("check")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i := range results {
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			// индекс i уникален для горутины, мьютекс не нужен
			checkOne(gctx, p, fileSet, &results[i], opts)
			return nil
		})
	}
	err = g.Wait()
	timer.End(checkIdx, "")

	res := &CheckResult{FileSet: fileSet, Files: results, Timing: timer.Report()}
	if err != nil {
		span.End(err.Error())
		return res, err
	}
	span.WithExtra("failed", strconv.FormatBool(res.Failed()))
	span.End("")
	emit(opts.Progress, Event{Stage: StageCheck, Status: StatusDone})
	return res, nil
}

func checkOne(ctx context.Context, p *pipeline.Pipeline, fileSet *source.FileSet, fr *FileResult, opts CheckOptions) {
	if fr.Err != nil {
		emit(opts.Progress, Event{File: fr.Path, Stage: StageLoad, Status: StatusError, Err: fr.Err})
		return
	}
	emit(opts.Progress, Event{File: fr.Path, Stage: StageCheck, Status: StatusWorking})
	started := time.Now()

	file := fileSet.Get(fr.FileID)
	fr.Result, fr.Err = p.Run(ctx, file.Text(), fr.Variant, opts.Run)
	fr.Elapsed = time.Since(started)

	status := StatusDone
	if fr.Err != nil {
		status = StatusError
		trace.Point(trace.FromContext(ctx), trace.ScopeDocument, "failed", fr.Path, trace.CurrentSpan(ctx).SpanID)
	}
	emit(opts.Progress, Event{File: fr.Path, Stage: StageCheck, Status: status, Err: fr.Err, Elapsed: fr.Elapsed})
}
