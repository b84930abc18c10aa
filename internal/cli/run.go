package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gmap/pkg/config"
	"github.com/matzehuels/gmap/pkg/dot"
	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/task"
	"github.com/matzehuels/gmap/pkg/task/memory"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	visType string
	layout  string
	cluster string
	scheme  string
	zoom    bool
	format  string
	output  string
	noCache bool
	tui     bool
}

// runCommand creates the run command for local one-shot pipelines.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a pipeline locally on a graph file",
		Long: `Run a pipeline locally on a DOT graph file and write the resulting map.

Use "-" to read the graph from stdin. Without --output the map is written to
stdout. With --zoom and --output, the semantic zoom levels are written next
to the output as <name>.zoom<N>.svg.`,
		Example: `  # Build a map with the default clustering
  gmap run graph.gv --vis gmap -o map.svg

  # Node-link diagram as PDF
  gmap run graph.gv --vis node-link --format pdf -o graph.pdf

  # Follow progress in a terminal UI
  gmap run graph.gv --vis gmap --zoom --tui -o map.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMap(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.visType, "vis", string(task.VisGMap), "visualization type")
	cmd.Flags().StringVar(&opts.layout, "layout", string(task.DefaultLayout), "layout algorithm")
	cmd.Flags().StringVar(&opts.cluster, "cluster", string(task.DefaultCluster), "clustering algorithm")
	cmd.Flags().StringVar(&opts.scheme, "scheme", task.DefaultColorScheme, "color scheme")
	cmd.Flags().BoolVar(&opts.zoom, "zoom", false, "also build semantic zoom levels")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatSVG, "output format")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show progress in a terminal UI")

	_ = cmd.RegisterFlagCompletionFunc("vis", completeValues(task.VisTypes))
	_ = cmd.RegisterFlagCompletionFunc("layout", completeValues(task.LayoutAlgorithms))
	_ = cmd.RegisterFlagCompletionFunc("cluster", completeValues(task.ClusterAlgorithms))
	_ = cmd.RegisterFlagCompletionFunc("format", completeValues(pipeline.Formats))

	return cmd
}

func (c *CLI) runMap(ctx context.Context, path string, opts runOptions) error {
	if err := pipeline.ValidateFormat(opts.format); err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	src, err := readSource(path)
	if err != nil {
		return err
	}

	t, err := task.NewTask(task.Params{
		GraphSource:      src,
		VisType:          opts.visType,
		LayoutAlgorithm:  opts.layout,
		ClusterAlgorithm: opts.cluster,
		ColorScheme:      opts.scheme,
		SemanticZoom:     opts.zoom,
	})
	if err != nil {
		return err
	}
	stats, err := dot.Inspect(ctx, src)
	if err != nil {
		return err
	}
	c.Logger.Debug("graph parsed", "nodes", stats.Nodes, "edges", stats.Edges, "bytes", stats.Bytes)

	artifacts, keyer, err := c.openCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	if cfg.Cache.Backend == config.CacheNone {
		artifacts = localCache(opts.noCache)
	}
	defer closeQuietly(c.Logger, "cache", artifacts)

	store := newWatchStore(memory.NewStore())
	runner := pipeline.NewRunner(c.newProc(cfg), store, pipeline.Config{
		Tools:  cfg.Tools,
		Cache:  artifacts,
		Keyer:  keyer,
		Logger: c.Logger,
	})

	prog := newProgress(c.Logger)
	if opts.tui {
		err = runWithTUI(ctx, runner, store, t)
	} else {
		err = runWithSpinner(ctx, runner, store, t)
	}
	if err != nil {
		return err
	}
	if t.Status != task.StatusCompleted {
		return fmt.Errorf("pipeline failed: %s", t.Error)
	}
	prog.done("Map completed")

	data := []byte(t.Artifact)
	if opts.format != pipeline.FormatSVG {
		if data, err = runner.RenderFormat(ctx, t, opts.format); err != nil {
			return err
		}
	}

	if opts.output == "" {
		if len(t.ZoomArtifacts) > 0 {
			c.Logger.Warn("zoom levels are only written with --output")
		}
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSuccess("Map written")
	printStats(stats.Nodes, stats.Edges, t.Width, t.Height)
	printKeyValue("task", t.ID)
	printKeyValue("elapsed", prog.elapsed().String())
	printFile(opts.output)
	for i, svg := range t.ZoomArtifacts {
		p := zoomPath(opts.output, i)
		if err := os.WriteFile(p, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("write zoom level %d: %w", i, err)
		}
		printFile(p)
	}
	return nil
}

// runWithSpinner runs the pipeline with a spinner following the task status.
func runWithSpinner(ctx context.Context, runner *pipeline.Runner, store *watchStore, t *task.Task) error {
	spinner := newSpinnerWithContext(ctx, "starting pipeline...")
	store.OnStatus(func(s task.Status) {
		if !s.Terminal() {
			spinner.SetMessage(string(s) + "...")
		}
	})
	spinner.Start()
	err := runner.CreateMap(ctx, t)
	spinner.Stop()
	if t.Status == task.StatusError {
		printError("%s", t.StatusText())
	}
	return err
}

// readSource reads a graph file, or stdin for "-".
func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read graph: %w", err)
	}
	return string(data), nil
}

// zoomPath names the file of zoom level i next to output.
func zoomPath(output string, i int) string {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	return fmt.Sprintf("%s.zoom%d.svg", base, i)
}

// completeValues offers a fixed set of flag values.
func completeValues[T ~string](values []T) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = string(v)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
