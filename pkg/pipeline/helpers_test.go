package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/gmap/pkg/proc"
	"github.com/matzehuels/gmap/pkg/stage"
	"github.com/matzehuels/gmap/pkg/task"
	"github.com/matzehuels/gmap/pkg/task/memory"
)

const toolError = "Error: <stdin>: syntax error in line 1 near '}'"

// fakeRunner records invocations. Graph stages append their name to the
// input; render and draw stages emit a small SVG.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []proc.Command
	inputs []string
	failAt int // 1-based call number that fails, 0 for none
	after  func(call int)
}

func (f *fakeRunner) Run(_ context.Context, cmd proc.Command, input string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	f.inputs = append(f.inputs, input)
	if f.after != nil {
		defer f.after(len(f.calls))
	}
	if len(f.calls) == f.failAt {
		return "", &proc.ExternalToolError{Command: cmd.Name, ExitCode: 1, Stderr: toolError}
	}
	switch cmd.Name {
	case stage.NameRender, stage.NameDraw:
		return fmt.Sprintf(`<svg width="%dpt" height="50pt" viewBox="0 0 1 1"><title>%%3</title><g/></svg>`, len(f.calls)*10), nil
	}
	return input + "|" + cmd.Name, nil
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Name
	}
	return names
}

// recordingStore captures the status of every save.
type recordingStore struct {
	*memory.Store
	mu       sync.Mutex
	statuses []task.Status
	err      error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memory.NewStore()}
}

func (s *recordingStore) Save(ctx context.Context, t *task.Task) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.statuses = append(s.statuses, t.Status)
	s.mu.Unlock()
	return s.Store.Save(ctx, t)
}

// ctxStore rejects saves on a done context, as network-backed stores do.
type ctxStore struct {
	*memory.Store
}

func (s ctxStore) Save(ctx context.Context, t *task.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.Save(ctx, t)
}

func newTestRunner(f *fakeRunner, store task.Store) *Runner {
	return NewRunner(f, store, Config{Tools: stage.DefaultTools("ext")})
}

func newTestTask(vis task.VisType, cluster task.ClusterAlgorithm, scheme string) *task.Task {
	return &task.Task{
		ID:               "t-" + strings.ReplaceAll(string(vis), "-", ""),
		GraphSource:      "src",
		VisType:          vis,
		LayoutAlgorithm:  task.LayoutSFDP,
		ClusterAlgorithm: cluster,
		ColorScheme:      scheme,
		Status:           task.StatusCreated,
	}
}
