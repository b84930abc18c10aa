package proc

import (
	"os"
	"strings"
)

// EnvVar sets or extends one environment variable for a Command.
type EnvVar struct {
	Name  string
	Value string
	// Append joins Value onto the inherited value with the OS path list
	// separator instead of replacing it.
	Append bool
}

// Command describes one external tool invocation.
type Command struct {
	// Name is a short label used in logs and errors, e.g. "layout".
	Name string
	Path string
	Args []string
	Env  []EnvVar
}

// String renders the command as a readable command line. It is for display
// only; commands are never executed through a shell.
func (c Command) String() string {
	var b strings.Builder
	for _, e := range c.Env {
		b.WriteString(e.Name)
		if e.Append {
			b.WriteString("+=")
		} else {
			b.WriteString("=")
		}
		b.WriteString(e.Value)
		b.WriteString(" ")
	}
	b.WriteString(c.Path)
	for _, a := range c.Args {
		b.WriteString(" ")
		b.WriteString(a)
	}
	return b.String()
}

// Environ returns base with the command's overlay applied. Later entries for
// the same name win, matching how exec resolves duplicates.
func (c Command) Environ(base []string) []string {
	if len(c.Env) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(c.Env))
	env = append(env, base...)
	for _, e := range c.Env {
		value := e.Value
		if e.Append {
			if prev, ok := lookup(env, e.Name); ok && prev != "" {
				value = prev + string(os.PathListSeparator) + e.Value
			}
		}
		env = append(env, e.Name+"="+value)
	}
	return env
}

// lookup returns the last value bound to name in env.
func lookup(env []string, name string) (string, bool) {
	prefix := name + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

// StripNonASCII removes every byte outside the 7-bit ASCII range.
func StripNonASCII(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 0x80 {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
