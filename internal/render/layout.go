package render

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"posterstudio/internal/domain"
	"posterstudio/internal/poster"
)

// PreviewWidth is the on-screen width of the poster preview in CSS pixels.
const PreviewWidth = 300

var frameColors = map[string]string{
	"black-wood":  "#1A1A1A",
	"white-wood":  "#F4F2EE",
	"natural-oak": "#C8A165",
}

type LayoutOptions struct {
	// Width of the scene; zero means PreviewWidth.
	Width float64
	// IllustrationBaseURL prefixes illustration image names. Empty draws
	// flat silhouettes only.
	IllustrationBaseURL string
	Locale              language.Tag
}

// Layout builds the poster scene for a state. The scene's aspect ratio
// follows the physical poster size.
func Layout(state domain.BirthPosterState, opts LayoutOptions) *Node {
	width := opts.Width
	if width <= 0 {
		width = PreviewWidth
	}
	wCm, hCm, ok := poster.Dimensions(state.PosterSize)
	if !ok {
		wCm, hCm, _ = poster.Dimensions(poster.DefaultSize(state.BabyCount))
	}
	height := width * hCm / wCm

	root := &Node{W: width, H: height, Fill: state.BackgroundColor}

	border := 0.0
	if state.FrameStyle != nil {
		border = width * 0.04
		root.Children = append(root.Children, frameNodes(state.FrameStyle.ID, width, height, border)...)
	}

	inner := &Node{X: border, Y: border, W: width - 2*border, H: height - 2*border}
	root.Children = append(root.Children, inner)

	n := len(state.Babies)
	if n == 0 {
		return root
	}
	colW := inner.W / float64(n)
	artTop := inner.H * 0.08
	artH := inner.H * poster.UsableHeightRatio
	pxPerCm := artH / (hCm * poster.UsableHeightRatio)
	headerSize := inner.H * 0.035
	dataSize := inner.H * 0.025

	for i, b := range state.Babies {
		col := &Node{X: float64(i) * colW, W: colW, H: inner.H}

		figH := min(b.HeightCm/poster.Scale(b.HeightCm, state.PosterSize)*pxPerCm, artH)
		figW := min(figH*0.45, colW*0.9)
		fig := &Node{
			X: (colW - figW) / 2, Y: artTop + artH - figH, W: figW, H: figH,
			Fill: b.IllustrationColor,
		}
		if opts.IllustrationBaseURL != "" {
			fig.Image = &ImageRef{URL: IllustrationURL(opts.IllustrationBaseURL, b)}
		}
		col.Children = append(col.Children, fig)

		textTop := artTop + artH + inner.H*0.02
		col.Children = append(col.Children,
			&Node{
				Y: textTop, W: colW, H: headerSize * 1.4,
				Text: &Text{Content: poster.HeaderLine(b, i, state.PosterSize), Size: headerSize, Color: "#333333"},
			},
			&Node{
				Y: textTop + headerSize*1.6, W: colW, H: dataSize * 1.4,
				Text: &Text{Content: poster.DataLine(b, opts.Locale), Size: dataSize, Color: "#666666"},
			},
		)

		if i == state.ActiveBabyTab {
			col.Children = append(col.Children, outline(colW, inner.H, 2))
		}
		inner.Children = append(inner.Children, col)
	}
	return root
}

// IllustrationURL names the illustration asset for a baby:
// {base}{style}-{orientation}.png?color={hex}.
func IllustrationURL(base string, b domain.BabyConfig) string {
	style := b.IllustrationStyleID
	if style == "" {
		style = poster.DefaultIllustrationStyle
	}
	orientation := b.Orientation
	if orientation == "" {
		orientation = domain.OrientationLeft
	}
	u := strings.TrimSuffix(base, "/") + "/" + url.PathEscape(style) + "-" + string(orientation) + ".png"
	if b.IllustrationColor != "" {
		u += "?color=" + url.QueryEscape(b.IllustrationColor)
	}
	return u
}

func frameNodes(frameID string, w, h, border float64) []*Node {
	c, ok := frameColors[frameID]
	if !ok {
		c = frameColors["black-wood"]
	}
	return []*Node{
		{W: w, H: border, Fill: c},
		{Y: h - border, W: w, H: border, Fill: c},
		{Y: border, W: border, H: h - 2*border, Fill: c},
		{X: w - border, Y: border, W: border, H: h - 2*border, Fill: c},
	}
}

// outline highlights the active baby on screen; it is never captured.
func outline(w, h, stroke float64) *Node {
	const c = "#4A90E2"
	return &Node{
		W: w, H: h, Exclude: true,
		Children: []*Node{
			{W: w, H: stroke, Fill: c},
			{Y: h - stroke, W: w, H: stroke, Fill: c},
			{W: stroke, H: h, Fill: c},
			{X: w - stroke, W: stroke, H: h, Fill: c},
		},
	}
}
