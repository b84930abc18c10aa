package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Graphviz emits a title element holding the internal graph id and a fixed
// width and height on the root element. Both break embedding in a viewer
// that sizes the drawing from its viewBox.
const defaultTitle = "<title>%3</title>"

var dimensionsRegex = regexp.MustCompile(`<svg width="([^"]*)pt" height="([^"]*)pt"`)

// StripDimensions removes the first default title element and the root
// width/height attributes from svg, returning the dimensions in points.
// Missing or unparsable dimensions yield 0, 0 and are not an error.
func StripDimensions(svg string) (string, float64, float64) {
	svg = strings.Replace(svg, defaultTitle, "", 1)

	loc := dimensionsRegex.FindStringSubmatchIndex(svg)
	if loc == nil {
		return svg, 0, 0
	}

	var width, height float64
	w, errW := strconv.ParseFloat(svg[loc[2]:loc[3]], 64)
	h, errH := strconv.ParseFloat(svg[loc[4]:loc[5]], 64)
	if errW == nil && errH == nil {
		width, height = w, h
	}
	return svg[:loc[0]] + "<svg" + svg[loc[1]:], width, height
}

// ZoomScale is one semantic zoom rendering: geometry scaled by Content and
// drawn on a canvas of Canvas inches.
type ZoomScale struct {
	Content int
	Canvas  int
}

// ZoomScales are rendered in order, from the most zoomed out to the most
// detailed.
var ZoomScales = [...]ZoomScale{
	{Content: 4, Canvas: 10},
	{Content: 3, Canvas: 20},
	{Content: 2, Canvas: 40},
	{Content: 1, Canvas: 80},
}
