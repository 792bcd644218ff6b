// Package render rasterizes poster scenes into preview, thumbnail and print
// images.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Node is a box in a scene tree. Coordinates are CSS pixels relative to the
// parent; the root's size is the scene's native size.
type Node struct {
	X, Y, W, H float64
	// Fill is a hex color painted over the box; empty is transparent.
	Fill  string
	Text  *Text
	Image *ImageRef
	// Exclude drops the node and its children from captures. Used for
	// on-screen affordances such as the active-baby outline.
	Exclude  bool
	Children []*Node
}

// Align positions text horizontally inside its box.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

type Text struct {
	Content string
	// Size is the font size in CSS pixels.
	Size  float64
	Color string
	Align Align
}

// ImageRef is an embedded image resource, fetched before rasterizing.
type ImageRef struct {
	URL string
}

// Walk calls fn for n and every descendant, depth first. Returning false
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ParseColor reads #RGB, #RRGGBB or #RRGGBBAA.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q: want #RGB, #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
