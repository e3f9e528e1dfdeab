package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"glint/internal/driver"
	"glint/internal/pipeline"
)

// printCheckTimings prints driver phases, then pipeline stages summed over
// every document.
func printCheckTimings(out io.Writer, res *driver.CheckResult) {
	if out == nil || res == nil {
		return
	}
	for _, phase := range res.Timing.Phases {
		line := fmt.Sprintf("%s %.1f ms", phase.Name, phase.DurationMS)
		if phase.Note != "" {
			line += " (" + phase.Note + ")"
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			panic(err)
		}
	}

	stages := make(map[string]time.Duration)
	for _, fr := range res.Files {
		if fr.Result == nil {
			continue
		}
		for name, d := range fr.Result.Meta.Timings {
			stages[name] += d
		}
	}
	order := []string{
		string(pipeline.StageTranspile),
		string(pipeline.StageExtract),
		string(pipeline.StageNormalize),
		string(pipeline.StageAssemble),
	}
	var extra []string
	for name := range stages {
		if !slices.Contains(order, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)
	for _, name := range order {
		d, ok := stages[name]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(out, "  %s %.1f ms\n", name, toMillis(d)); err != nil {
			panic(err)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
