package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/task"
)

// planCommand creates the plan command, which prints the stages a request
// would run without running them.
func (c *CLI) planCommand() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the stages a request would run",
		Example: `  gmap plan --vis gmap --cluster cont-k-means
  gmap plan --vis bubble-sets --zoom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			t, err := planTask(opts)
			if err != nil {
				return err
			}
			lib := stage.NewLibrary(cfg.Tools)
			stages, err := pipeline.Plan(t, lib)
			if err != nil {
				return err
			}
			fmt.Println(renderPlan(t, stages, lib))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.visType, "vis", string(task.VisGMap), "visualization type")
	cmd.Flags().StringVar(&opts.layout, "layout", string(task.DefaultLayout), "layout algorithm")
	cmd.Flags().StringVar(&opts.cluster, "cluster", string(task.DefaultCluster), "clustering algorithm")
	cmd.Flags().StringVar(&opts.scheme, "scheme", task.DefaultColorScheme, "color scheme")
	cmd.Flags().BoolVar(&opts.zoom, "zoom", false, "include the semantic zoom stages")

	_ = cmd.RegisterFlagCompletionFunc("vis", completeValues(task.VisTypes))
	_ = cmd.RegisterFlagCompletionFunc("layout", completeValues(task.LayoutAlgorithms))
	_ = cmd.RegisterFlagCompletionFunc("cluster", completeValues(task.ClusterAlgorithms))

	return cmd
}

// planTask validates the request fields of opts into a task without a graph.
func planTask(opts runOptions) (*task.Task, error) {
	vis, err := task.ParseVisType(opts.visType)
	if err != nil {
		return nil, err
	}
	layout, err := task.ParseLayoutAlgorithm(opts.layout)
	if err != nil {
		return nil, err
	}
	cluster, err := task.ParseClusterAlgorithm(opts.cluster)
	if err != nil {
		return nil, err
	}
	return &task.Task{
		VisType:          vis,
		LayoutAlgorithm:  layout,
		ClusterAlgorithm: cluster,
		ColorScheme:      opts.scheme,
		SemanticZoom:     opts.zoom,
	}, nil
}

// renderPlan formats stages, followed by the zoom stages when requested, as
// a table.
func renderPlan(t *task.Task, stages []stage.Stage, lib *stage.Library) string {
	rows := make([][]string, 0, len(stages)+2*len(pipeline.ZoomScales))
	for i, s := range stages {
		rows = append(rows, []string{strconv.Itoa(i + 1), s.Name, string(s.Status), s.Command.String()})
	}
	if t.SemanticZoom {
		for i, z := range pipeline.ZoomScales {
			for _, s := range []stage.Stage{lib.Scale(z.Content), lib.Draw(z.Canvas)} {
				rows = append(rows, []string{"z" + strconv.Itoa(i), s.Name, string(task.StatusSemanticZoom), s.Command.String()})
			}
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Stage", "Status", "Command").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return StyleHighlight
			case col == 3:
				return styleCommand
			}
			return StyleDim
		})

	title := StyleTitle.Render(fmt.Sprintf("%s plan", t.VisType))
	return title + "\n" + tbl.Render()
}
