// Package proc runs external tools as child processes.
//
// A [Command] is a structured invocation: binary path, ordered arguments and
// an environment overlay. Commands are executed directly, never through a
// shell, so graph text only ever reaches a tool on its standard input.
//
// # Failure detection
//
// [ExecRunner] treats a tool as failed when it exits with a non-zero status
// or writes anything to its error stream. Both cases surface as an
// [*ExternalToolError] carrying the exit code and the captured stderr.
//
// # Text hygiene
//
// Non-ASCII characters are stripped from the input before it is written and
// from the output unless the caller asks for raw output (rendered images).
package proc
