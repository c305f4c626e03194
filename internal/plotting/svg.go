package plotting

import (
	"fmt"
	"html"
	"math"
	"strings"
)

const svgMargin = 60

var svgPalette = []string{"#1f77b4", "#d62728", "#2ca02c", "#ff7f0e"}

// FigureToSVG renders a figure as a standalone SVG document with a frame,
// axis labels and a legend.
func FigureToSVG(f *Figure, width, height int) string {
	minX, maxX, minY, maxY := figureBounds(f)
	plotW := float64(width - 2*svgMargin)
	plotH := float64(height - 2*svgMargin)

	if f.XY && f.EqualAxes {
		cx, cy := (minX+maxX)/2, (minY+maxY)/2
		half := math.Max((maxX-minX)/plotW, (maxY-minY)/plotH) / 2
		minX, maxX = cx-half*plotW, cx+half*plotW
		minY, maxY = cy-half*plotH, cy+half*plotH
	}
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<rect x="%d" y="%d" width="%.0f" height="%.0f" fill="none" stroke="#333333"/>
`, width, height, width, height, svgMargin, svgMargin, plotW, plotH)

	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="16" text-anchor="middle">%s</text>
`, width/2, svgMargin/2, html.EscapeString(f.Title))
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="12" text-anchor="middle">%s</text>
`, width/2, height-svgMargin/3, html.EscapeString(f.XLabel))
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="12" text-anchor="middle" transform="rotate(-90 %d %d)">%s</text>
`, svgMargin/3, height/2, svgMargin/3, height/2, html.EscapeString(f.YLabel))
	fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="10">%.4g</text>
<text x="%d" y="%d" font-family="sans-serif" font-size="10" text-anchor="end">%.4g</text>
<text x="%d" y="%d" font-family="sans-serif" font-size="10" text-anchor="end">%.4g</text>
<text x="%d" y="%d" font-family="sans-serif" font-size="10" text-anchor="end">%.4g</text>
`,
		svgMargin, height-svgMargin+14, minX,
		width-svgMargin, height-svgMargin+14, maxX,
		svgMargin-4, height-svgMargin, minY,
		svgMargin-4, svgMargin+10, maxY)

	for i, s := range f.Series {
		if len(s.Y) < 2 {
			continue
		}
		color := s.Color
		if color == "" {
			color = svgPalette[i%len(svgPalette)]
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for j, y := range s.Y {
			x := float64(j)
			if j < len(s.X) {
				x = s.X[j]
			}
			px := float64(svgMargin) + (x-minX)/rangeX*plotW
			py := float64(svgMargin) + plotH - (y-minY)/rangeY*plotH
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", px, py)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
			}
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="%s">%s</text>
`, width-svgMargin-140, svgMargin+16+14*i, color, html.EscapeString(s.Label))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func figureBounds(f *Figure) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, s := range f.Series {
		for j, y := range s.Y {
			x := float64(j)
			if j < len(s.X) {
				x = s.X[j]
			}
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	if math.IsInf(minX, 1) {
		return 0, 1, 0, 1
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}
	padY := (maxY - minY) * 0.05
	return minX, maxX, minY - padY, maxY + padY
}
