// internal/logo/svg.go
package logo

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// SVGOptions controls WriteSVG. Width and Height are in inches, as in the
// figure sizes used for additive logos; 96 px per inch.
type SVGOptions struct {
	Center     bool
	ViewWindow [2]int
	Width      float64
	Height     float64
	Title      string
}

// DefaultSVGOptions draws a 20 x 2.5 inch centred logo.
var DefaultSVGOptions = SVGOptions{Center: true, Width: 20, Height: 2.5}

var glyphColor = map[byte]string{
	'A': "#109648",
	'C': "#255C99",
	'G': "#F7B32B",
	'T': "#D62839",
	'U': "#D62839",
}

const (
	pxPerInch = 96.0
	capHeight = 0.72 // fraction of the font em box covered by a capital
	fontPx    = 100.0
	marginPx  = 40.0
)

// WriteSVG renders m as a stacked-letter logo: positive effects stack up
// from the baseline, negative ones hang below it, larger letters outermost.
func WriteSVG(w io.Writer, m Matrix, opt SVGOptions) error {
	if opt.Width <= 0 {
		opt.Width = DefaultSVGOptions.Width
	}
	if opt.Height <= 0 {
		opt.Height = DefaultSVGOptions.Height
	}
	view, err := m.View(opt.ViewWindow)
	if err != nil {
		return err
	}
	if opt.Center {
		view = view.Center()
	}

	bw := bufio.NewWriter(w)
	width, height := opt.Width*pxPerInch, opt.Height*pxPerInch
	plotW, plotH := width-2*marginPx, height-2*marginPx
	n := view.Len()
	if n == 0 {
		return fmt.Errorf("empty logo")
	}
	colW := plotW / float64(n)

	// scale so the tallest stack on either side fits its half of the plot
	var maxPos, maxNeg float64
	for _, r := range view.Rows {
		var p, q float64
		for _, v := range r {
			if v > 0 {
				p += v
			} else {
				q -= v
			}
		}
		maxPos, maxNeg = max(maxPos, p), max(maxNeg, q)
	}
	span := maxPos + maxNeg
	if span == 0 {
		span = 1
	}
	unit := plotH / span
	baseline := marginPx + maxPos*unit

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n", width, height, width, height)
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="white"/>`+"\n")
	if opt.Title != "" {
		fmt.Fprintf(bw, `<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="14">%s</text>`+"\n", marginPx, marginPx/2, escape(opt.Title))
	}

	type item struct {
		sym byte
		v   float64
	}
	for i, r := range view.Rows {
		x := marginPx + float64(i)*colW
		items := make([]item, 0, len(r))
		for j, v := range r {
			items = append(items, item{view.Alphabet.Symbol(j), v})
		}
		sort.Slice(items, func(a, b int) bool {
			if abs(items[a].v) != abs(items[b].v) {
				return abs(items[a].v) < abs(items[b].v)
			}
			return items[a].sym < items[b].sym
		})
		up, down := baseline, baseline
		for _, it := range items {
			h := abs(it.v) * unit
			if h < 0.05 {
				continue
			}
			var y float64 // glyph baseline
			if it.v > 0 {
				y = up
				up -= h
			} else {
				down += h
				y = down
			}
			writeGlyph(bw, it.sym, x, y, colW, h)
		}
	}

	fmt.Fprintf(bw, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black" stroke-width="1"/>`+"\n",
		marginPx, baseline, marginPx+plotW, baseline)
	step := tickStep(n)
	for i := 0; i < n; i += step {
		x := marginPx + (float64(i)+0.5)*colW
		fmt.Fprintf(bw, `<text x="%.1f" y="%.1f" font-family="sans-serif" font-size="10" text-anchor="middle">%d</text>`+"\n",
			x, height-marginPx/3, view.Start+i)
	}
	fmt.Fprintln(bw, `</svg>`)
	return bw.Flush()
}

// writeGlyph stretches a capital letter into the w x h box whose bottom-left
// corner is (x, y).
func writeGlyph(w io.Writer, sym byte, x, y, colW, h float64) {
	color, ok := glyphColor[sym]
	if !ok {
		color = "#555555"
	}
	sx := colW / (fontPx * 0.68)
	sy := h / (fontPx * capHeight)
	fmt.Fprintf(w, `<text transform="translate(%.2f,%.2f) scale(%.4f,%.4f)" font-family="monospace" font-weight="bold" font-size="%.0f" fill="%s">%c</text>`+"\n",
		x, y, sx, sy, fontPx, color, sym)
}

func tickStep(n int) int {
	switch {
	case n <= 20:
		return 1
	case n <= 100:
		return 10
	case n <= 500:
		return 50
	}
	return 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		case '&':
			out = append(out, "&amp;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
