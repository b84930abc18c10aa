// Package pipeline turns a task's graph into rendered artifacts by driving
// a sequence of external tools.
//
// # Architecture
//
//  1. Plan: resolve the ordered stage list from the task configuration
//  2. Execute: run each stage, feeding the previous output to the next, and
//     record progress on the task before every stage
//  3. Post-process: strip sizing attributes from the SVG and, on request,
//     render four semantic zoom variants
//
// A run is all or nothing. Any failing stage halts the run, records the
// error on the task and leaves every output field empty.
//
// # Usage
//
//	runner := pipeline.NewRunner(proc.NewExecRunner(logger), store, pipeline.Config{
//	    Tools:  stage.DefaultTools("external"),
//	    Logger: logger,
//	})
//	if err := runner.CreateMap(ctx, t); err != nil {
//	    // the store failed; t.Status may not be persisted
//	}
//	fmt.Println(t.StatusText())
//
// Render a completed task in another format:
//
//	pdf, err := runner.RenderFormat(ctx, t, "pdf")
package pipeline

import "github.com/matzehuels/gmap/pkg/errors"

// Format constants for output formats.
const (
	FormatPDF = "pdf"
	FormatPS  = "ps"
	FormatEPS = "eps"
	FormatPNG = "png"
	FormatGIF = "gif"
	FormatJPG = "jpg"
	FormatSVG = "svg"
	FormatDot = "dot"
	FormatGV  = "gv"
)

// MIMETypes maps every supported output format to its content type.
var MIMETypes = map[string]string{
	FormatPDF: "application/pdf",
	FormatPS:  "application/postscript",
	FormatEPS: "application/postscript",
	FormatPNG: "image/png",
	FormatGIF: "image/gif",
	FormatJPG: "image/jpeg",
	FormatSVG: "image/svg+xml",
	FormatDot: "text/plain",
	FormatGV:  "text/plain",
}

// Formats lists the supported output formats in display order.
var Formats = []string{FormatSVG, FormatPDF, FormatPNG, FormatGIF, FormatJPG, FormatPS, FormatEPS, FormatDot, FormatGV}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if _, ok := MIMETypes[format]; !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %v)", format, Formats)
	}
	return nil
}

// MIMEType returns the content type of format, or "" if unsupported.
func MIMEType(format string) string {
	return MIMETypes[format]
}
