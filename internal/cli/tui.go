package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gmap/pkg/pipeline"
	"github.com/matzehuels/gmap/pkg/task"
)

// Step styles
var (
	stepCurrentStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	stepDoneStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	stepPendingStyle = lipgloss.NewStyle().Foreground(colorDim)
	stepFailedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// ProgressModel - Pipeline progress display
// =============================================================================

type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

// progressStep is one line of the progress display.
type progressStep struct {
	Label  string
	Status task.Status
	State  stepState
}

type statusMsg task.Status

type finishedMsg struct{ err error }

type tickMsg time.Time

// ProgressModel is the bubbletea model that follows a pipeline run.
type ProgressModel struct {
	TaskID  string
	Steps   []progressStep
	Current int
	Done    bool
	Err     error

	frame  int
	start  time.Time
	now    time.Time
	cancel context.CancelFunc
}

// NewProgressModel creates a progress model over steps. cancel is called
// when the user quits.
func NewProgressModel(taskID string, steps []progressStep, cancel context.CancelFunc) ProgressModel {
	now := time.Now()
	return ProgressModel{
		TaskID:  taskID,
		Steps:   steps,
		Current: -1,
		start:   now,
		now:     now,
		cancel:  cancel,
	}
}

// planSteps lists the statuses a run of t passes through.
func planSteps(runner *pipeline.Runner, t *task.Task) []progressStep {
	plan, err := runner.Plan(t)
	if err != nil {
		return nil
	}
	steps := make([]progressStep, 0, len(plan)+1)
	for _, s := range plan {
		steps = append(steps, progressStep{Label: s.Name, Status: s.Status})
	}
	if t.SemanticZoom {
		steps = append(steps, progressStep{Label: "semantic zoom", Status: task.StatusSemanticZoom})
	}
	return steps
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.Err = context.Canceled
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		m.now = time.Time(msg)
		if m.Done {
			return m, nil
		}
		return m, tick()
	case statusMsg:
		m = m.advance(task.Status(msg))
	case finishedMsg:
		m.Done = true
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// advance moves the display to status s. Steps before the one matching s
// are marked done.
func (m ProgressModel) advance(s task.Status) ProgressModel {
	steps := append([]progressStep(nil), m.Steps...)
	m.Steps = steps
	switch s {
	case task.StatusCompleted:
		for i := range steps {
			steps[i].State = stepDone
		}
		m.Current = len(steps)
		return m
	case task.StatusError:
		if m.Current >= 0 && m.Current < len(steps) {
			steps[m.Current].State = stepFailed
		}
		return m
	}

	for i := max(m.Current, 0); i < len(steps); i++ {
		if steps[i].Status != s {
			continue
		}
		for j := 0; j < i; j++ {
			steps[j].State = stepDone
		}
		steps[i].State = stepRunning
		m.Current = i
		break
	}
	return m
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("gmap run"))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(m.TaskID))
	b.WriteString("\n\n")

	for _, s := range m.Steps {
		var icon, label string
		switch s.State {
		case stepRunning:
			icon = styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
			label = stepCurrentStyle.Render(s.Label) + "  " + StyleDim.Render(string(s.Status))
		case stepDone:
			icon = styleIconSuccess.Render(iconSuccess)
			label = stepDoneStyle.Render(s.Label)
		case stepFailed:
			icon = styleIconError.Render(iconError)
			label = stepFailedStyle.Render(s.Label)
		default:
			icon = StyleDim.Render("·")
			label = stepPendingStyle.Render(s.Label)
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", icon, label))
	}

	b.WriteString("\n")
	elapsed := m.now.Sub(m.start).Round(100 * time.Millisecond)
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s elapsed  q quit", elapsed)))
	b.WriteString("\n")
	return b.String()
}

// runWithTUI runs the pipeline while a ProgressModel follows its status.
// Quitting the UI cancels the run; stages already started still finish.
func runWithTUI(ctx context.Context, runner *pipeline.Runner, store *watchStore, t *task.Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewProgressModel(t.ID, planSteps(runner, t), cancel)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	store.OnStatus(func(s task.Status) { p.Send(statusMsg(s)) })

	done := make(chan error, 1)
	go func() {
		err := runner.CreateMap(ctx, t)
		p.Send(finishedMsg{err: err})
		done <- err
	}()

	final, err := p.Run()
	cancel()
	runErr := <-done
	if err != nil {
		return fmt.Errorf("progress display: %w", err)
	}
	if fm, ok := final.(ProgressModel); ok && fm.Err != nil {
		return fm.Err
	}
	return runErr
}
