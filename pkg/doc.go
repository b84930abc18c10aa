// Package pkg provides the libraries behind gmap, which turns graph
// descriptions into maps by chaining external layout, clustering and map
// construction tools.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [task] - The unit of work, its statuses and its stores
//  2. [stage] - Command lines for every external tool
//  3. [proc] - Running one tool with piped input and output
//  4. [pipeline] - Plan selection, execution and post-processing
//  5. [worker] and [api] - The bounded queue and the HTTP surface
//  6. [cache], [config] and [observability] - Supporting infrastructure
//
// # Architecture
//
// The data flow of a request:
//
//	graph source (DOT)
//	         ↓
//	    [dot] package (parse and size check)
//	         ↓
//	    [pipeline] package (plan: layout → clustering → map → … → render)
//	         ↓
//	    [proc] package (one external tool per stage, stdin to stdout)
//	         ↓
//	    SVG artifact, semantic zoom levels, on-demand formats
//
// # Quick Start
//
// Run a task to completion without the server:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/gmap/pkg/pipeline"
//	    "github.com/matzehuels/gmap/pkg/proc"
//	    "github.com/matzehuels/gmap/pkg/stage"
//	    "github.com/matzehuels/gmap/pkg/task"
//	    "github.com/matzehuels/gmap/pkg/task/memory"
//	)
//
//	t, _ := task.NewTask(task.Params{GraphSource: src, VisType: "gmap"})
//	store := memory.NewStore()
//	runner := pipeline.NewRunner(proc.NewExecRunner(nil), store,
//	    pipeline.Config{Tools: stage.DefaultTools(stage.DefaultDir)})
//	if err := runner.CreateMap(ctx, t); err != nil {
//	    return err // store failure
//	}
//	fmt.Println(t.StatusText(), len(t.Artifact))
//
// [task]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/task
// [stage]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/stage
// [proc]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/proc
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/pipeline
// [worker]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/worker
// [api]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/api
// [cache]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/observability
// [dot]: https://pkg.go.dev/github.com/matzehuels/gmap/pkg/dot
package pkg
