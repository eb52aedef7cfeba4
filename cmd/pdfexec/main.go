// Package main provides a tiny command line that drives the execution
// core end to end: it begins an execution context, walks a handful of
// synthetic pages as marking contexts, and reports the xref cache's
// counters — exercising Components A through E without a real PDF
// parser, which is this core's job to host, not to implement (spec §1).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mechiko/pdfexec/pkg/config"
	"github.com/mechiko/pdfexec/pkg/exec"
	"github.com/mechiko/pdfexec/pkg/log"
)

var (
	pages   int
	verbose bool
	confIn  string
)

func init() {
	flag.IntVar(&pages, "pages", 3, "number of synthetic pages to walk")
	flag.BoolVar(&verbose, "verbose", false, "enable debug/info/stats logging")
	flag.StringVar(&confIn, "config", "", "path to a config.yml overlay")
}

func main() {
	flag.Parse()

	if verbose {
		log.SetDefaultLoggers()
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pdfexec: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.NewDefaultConfiguration()
	if confIn != "" {
		loaded, err := config.Load(confIn)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	doc := newSyntheticDocument(pages)

	registry := exec.NewRegistry()
	base, err := registry.NewBase(nil)
	if err != nil {
		return err
	}

	hooks := exec.Hooks{
		BeginMarkingContext: func(mc *exec.MarkingContext) error {
			if log.InfoEnabled() {
				log.Info.Printf("begin marking context mc=%d", mc.MC)
			}
			return nil
		},
		EndMarkingContext: func(mc *exec.MarkingContext) error {
			if log.InfoEnabled() {
				log.Info.Printf("end marking context mc=%d", mc.MC)
			}
			return nil
		},
	}

	ctx, err := base.BeginExecutionContext(exec.CoreContext{SaveLevel: exec.SaveLevelInc + 1}, cfg, doc.loader, hooks, nil)
	if err != nil {
		return err
	}

	for i, pageRef := range doc.pageRefs {
		pageID := int64(i)
		ctx.SetPageID(pageID)
		ctx.XRef.AddUsed(pageRef.ObjectNumber, pageRef.GenerationNumber, int64(pageRef.ObjectNumber))

		resourceRef := doc.resources[i]
		ctx.XRef.AddUsed(resourceRef.ObjectNumber, resourceRef.GenerationNumber, int64(resourceRef.ObjectNumber))

		resource, err := ctx.XRef.Lookup(resourceRef)
		if err != nil {
			return err
		}

		mc, err := ctx.BeginMarkingContext(resource, exec.StreamTypePage)
		if err != nil {
			return err
		}

		fmt.Printf("page %d: %d resource dict(s) on the stack\n", i, len(mc.Resources()))

		if err := ctx.EndMarkingContext(mc); err != nil {
			return err
		}

		if err := ctx.XRef.SweepXref(false, -1); err != nil {
			return err
		}
	}

	if err := registry.EndExecutionContext(ctx); err != nil {
		return err
	}
	registry.PurgeExecutionContexts(ctx.SaveLevel)

	stats := ctx.XRef.Stats()
	fmt.Printf("xref cache: hits=%d misses=%d reclaims=%d evictions=%d\n",
		stats.Hits, stats.Misses, stats.Reclaims, stats.Evictions)

	return nil
}
