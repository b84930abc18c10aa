package proc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestStripNonASCII(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"digraph { a -> b }", "digraph { a -> b }"},
		{"café", "caf"},
		{"日本 a", " a"},
	}
	for _, tt := range tests {
		if got := StripNonASCII(tt.in); got != tt.want {
			t.Errorf("StripNonASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnviron(t *testing.T) {
	base := []string{"HOME=/root", "LD_LIBRARY_PATH=/usr/lib"}
	sep := string(os.PathListSeparator)

	tests := []struct {
		name    string
		env     []EnvVar
		varName string
		want    string
	}{
		{"set", []EnvVar{{Name: "FOO", Value: "bar"}}, "FOO", "bar"},
		{"replace", []EnvVar{{Name: "HOME", Value: "/tmp"}}, "HOME", "/tmp"},
		{"append existing", []EnvVar{{Name: "LD_LIBRARY_PATH", Value: "/opt/lib", Append: true}}, "LD_LIBRARY_PATH", "/usr/lib" + sep + "/opt/lib"},
		{"append missing", []EnvVar{{Name: "PYTHONPATH", Value: "/opt/py", Append: true}}, "PYTHONPATH", "/opt/py"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Command{Env: tt.env}.Environ(base)
			got, ok := lookup(env, tt.varName)
			if !ok || got != tt.want {
				t.Errorf("%s = %q (%v), want %q", tt.varName, got, ok, tt.want)
			}
		})
	}
}

func TestEnvironNoOverlay(t *testing.T) {
	base := []string{"A=1"}
	if got := (Command{}).Environ(base); len(got) != 1 {
		t.Errorf("Environ without overlay changed base: %v", got)
	}
}

func TestCommandString(t *testing.T) {
	c := Command{
		Path: "external/ecba/build/Exec",
		Args: []string{"-p", "-r"},
		Env:  []EnvVar{{Name: "LD_LIBRARY_PATH", Value: "lib", Append: true}},
	}
	if got, want := c.String(), "LD_LIBRARY_PATH+=lib external/ecba/build/Exec -p -r"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestExecRunnerPipesInput(t *testing.T) {
	requireTool(t, "cat")
	r := NewExecRunner(nil)

	out, err := r.Run(context.Background(), Command{Name: "echo", Path: "cat"}, "graph { a -- b }", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "graph { a -- b }" {
		t.Errorf("out = %q", out)
	}
}

func TestExecRunnerStripsOutput(t *testing.T) {
	requireTool(t, "sh")
	r := NewExecRunner(nil)
	cmd := Command{Path: "sh", Args: []string{"-c", `printf 'na\303\257ve'`}}

	out, err := r.Run(context.Background(), cmd, "", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "nave" {
		t.Errorf("stripped out = %q, want %q", out, "nave")
	}

	raw, err := r.Run(context.Background(), cmd, "", true)
	if err != nil {
		t.Fatalf("Run raw: %v", err)
	}
	if raw != "naïve" {
		t.Errorf("raw out = %q", raw)
	}
}

func TestExecRunnerFailures(t *testing.T) {
	requireTool(t, "sh")
	r := NewExecRunner(nil)

	tests := []struct {
		name     string
		script   string
		exitCode int
		contains string
	}{
		{"non-zero exit", "cat >/dev/null; exit 3", 3, "exit status 3"},
		{"stderr with zero exit", "echo 'Error: syntax error in line 1' >&2", 0, "syntax error in line 1"},
		{"stderr and exit", "echo boom >&2; exit 1", 1, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Command{Name: "tool", Path: "sh", Args: []string{"-c", tt.script}}
			out, err := r.Run(context.Background(), cmd, "digraph {}", false)
			if err == nil {
				t.Fatal("expected error")
			}
			if out != "" {
				t.Errorf("out = %q, want empty", out)
			}
			var toolErr *ExternalToolError
			if !errors.As(err, &toolErr) {
				t.Fatalf("err = %T, want *ExternalToolError", err)
			}
			if toolErr.ExitCode != tt.exitCode {
				t.Errorf("ExitCode = %d, want %d", toolErr.ExitCode, tt.exitCode)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want to contain %q", err.Error(), tt.contains)
			}
			if !strings.HasPrefix(err.Error(), "tool: ") {
				t.Errorf("Error() = %q, want command prefix", err.Error())
			}
		})
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner(nil)
	_, err := r.Run(context.Background(), Command{Path: "/nonexistent/gvmap"}, "", false)
	if !IsExternalToolError(err) {
		t.Fatalf("err = %v, want ExternalToolError", err)
	}
}

func TestExecRunnerEnvOverlay(t *testing.T) {
	requireTool(t, "sh")
	r := NewExecRunner(nil)
	cmd := Command{
		Path: "sh",
		Args: []string{"-c", `printf '%s' "$GMAP_TEST_VAR"`},
		Env:  []EnvVar{{Name: "GMAP_TEST_VAR", Value: "overlay"}},
	}
	out, err := r.Run(context.Background(), cmd, "", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "overlay" {
		t.Errorf("out = %q", out)
	}
}

func TestExecRunnerCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExecRunner(nil).Run(ctx, Command{Path: "cat"}, "", false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
