// internal/logo/render.go
package logo

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderOptions control the terminal rendering.
type RenderOptions struct {
	// Bar width for the largest effect. If <=0, use default (40).
	BarWidth int

	// Centre rows before picking the top symbol.
	Center bool

	// Colour glyphs and bars by symbol.
	Color bool

	// Rows whose top |effect| is below this fraction of the max print as dots.
	Floor float64

	BarGlyph string // default "█"
	DotGlyph string // default "."
}

// DefaultRenderOptions is the look used by the CLI summary.
var DefaultRenderOptions = RenderOptions{
	BarWidth: 40,
	Center:   true,
	Color:    true,
	Floor:    0.05,
	BarGlyph: "█",
	DotGlyph: ".",
}

const linePrefix = "# "

func symbolStyle(sym byte) lipgloss.Style {
	c, ok := glyphColor[sym]
	if !ok {
		c = "#888888"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true)
}

// Consensus is the highest-effect symbol per position, lower-cased where
// the top effect is below floor*MaxAbs and '.' where it is not positive.
func Consensus(m Matrix, floor float64) string {
	hi := m.MaxAbs()
	var b strings.Builder
	b.Grow(m.Len())
	for _, r := range m.Rows {
		j, v := argmax(r)
		switch {
		case j < 0 || v <= 0:
			b.WriteByte('.')
		case v < floor*hi:
			b.WriteString(strings.ToLower(string(m.Alphabet.Symbol(j))))
		default:
			b.WriteByte(m.Alphabet.Symbol(j))
		}
	}
	return b.String()
}

// Render prints one line per position: position, top symbol, its effect
// and a bar proportional to |effect|.
func Render(m Matrix, opt RenderOptions) string {
	width := opt.BarWidth
	if width <= 0 {
		width = DefaultRenderOptions.BarWidth
	}
	bar := opt.BarGlyph
	if bar == "" {
		bar = DefaultRenderOptions.BarGlyph
	}
	dot := opt.DotGlyph
	if dot == "" {
		dot = DefaultRenderOptions.DotGlyph
	}
	if opt.Center {
		m = m.Center()
	}
	hi := m.MaxAbs()

	var b strings.Builder
	posW := len(fmt.Sprint(m.End()))
	fmt.Fprintf(&b, "%s%*s  sym  %9s\n", linePrefix, posW, "pos", "effect")
	for i, r := range m.Rows {
		j, v := argmaxAbs(r)
		pos := m.Start + i
		if j < 0 || hi == 0 || math.Abs(v) < opt.Floor*hi {
			fmt.Fprintf(&b, "%s%*d  %3s\n", linePrefix, posW, pos, dot)
			continue
		}
		sym := m.Alphabet.Symbol(j)
		n := int(math.Round(math.Abs(v) / hi * float64(width)))
		glyph, bars := string(sym), strings.Repeat(bar, n)
		if opt.Color {
			st := symbolStyle(sym)
			glyph, bars = st.Render(glyph), st.Render(bars)
		}
		sign := " "
		if v < 0 {
			sign = "-"
		}
		fmt.Fprintf(&b, "%s%*d  %3s  %+9.4f %s%s\n", linePrefix, posW, pos, glyph, v, sign, bars)
	}
	b.WriteString("#\n")
	return b.String()
}

func argmax(r []float64) (int, float64) {
	j, best := -1, math.Inf(-1)
	for k, v := range r {
		if v > best {
			j, best = k, v
		}
	}
	return j, best
}

func argmaxAbs(r []float64) (int, float64) {
	j, best := -1, -1.0
	for k, v := range r {
		if math.Abs(v) > best {
			j, best = k, math.Abs(v)
		}
	}
	if j < 0 {
		return -1, 0
	}
	return j, r[j]
}
