package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Color is a 24-bit terminal color. Default colors carry no RGB value and
// leave the terminal's own foreground in place.
type Color struct {
	R, G, B uint8
	Default bool
}

// NewColor creates a new color.
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.Default {
		return "default"
	}
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Cell is one character position on a canvas.
type Cell struct {
	Rune  rune
	Color Color
}

// Canvas is a fixed-size grid of colored characters.
type Canvas struct {
	Width  int
	Height int
	// Cells is row-major: cell (x, y) is at y*Width+x.
	Cells []Cell
}

// NewCanvas creates a canvas filled with blanks.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{
		Width:  width,
		Height: height,
		Cells:  make([]Cell, width*height),
	}
	c.Clear()
	return c
}

// Set sets a single cell. Out of bounds coordinates are silently ignored.
func (c *Canvas) Set(x, y int, r rune, color Color) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return
	}
	c.Cells[y*c.Width+x] = Cell{Rune: r, Color: color}
}

// SetBehind sets a cell only while it is still blank.
func (c *Canvas) SetBehind(x, y int, r rune, color Color) {
	if cell := c.Get(x, y); cell != nil && cell.Rune == ' ' {
		c.Set(x, y, r, color)
	}
}

// Get returns a copy of the cell at (x, y), or nil when out of bounds.
func (c *Canvas) Get(x, y int) *Cell {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return nil
	}
	cell := c.Cells[y*c.Width+x]
	return &cell
}

// Clear resets every cell to a blank.
func (c *Canvas) Clear() {
	for i := range c.Cells {
		c.Cells[i] = Cell{Rune: ' ', Color: ColorDefault}
	}
}

// DrawText writes s left to right starting at (x, y), clipped to the canvas.
func (c *Canvas) DrawText(x, y int, s string, color Color) {
	for _, r := range s {
		c.Set(x, y, r, color)
		x++
	}
}

// DrawLine draws a line of r from (x0, y0) to (x1, y1).
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, r rune, color Color) {
	walkLine(x0, y0, x1, y1, func(x, y int) {
		c.Set(x, y, r, color)
	})
}

// walkLine visits every cell of a Bresenham line, endpoints included.
func walkLine(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the canvas without color. Trailing blanks are trimmed.
func (c *Canvas) String() string {
	var sb strings.Builder
	_ = c.Render(&sb, termenv.Ascii)
	return sb.String()
}

// Render writes the canvas row by row, coloring runs of equal color for the
// given profile. termenv.Ascii writes plain text; lower profiles get the
// nearest color they support.
func (c *Canvas) Render(w io.Writer, profile termenv.Profile) error {
	var sb strings.Builder
	var run strings.Builder
	for y := 0; y < c.Height; y++ {
		row := c.Cells[y*c.Width : (y+1)*c.Width]
		end := len(row)
		for end > 0 && row[end-1].Rune == ' ' {
			end--
		}

		runColor := ColorDefault
		for _, cell := range row[:end] {
			// Blanks join whatever run they sit in.
			if cell.Rune != ' ' && cell.Color != runColor {
				sb.WriteString(styled(profile, run.String(), runColor))
				run.Reset()
				runColor = cell.Color
			}
			run.WriteRune(cell.Rune)
		}
		sb.WriteString(styled(profile, run.String(), runColor))
		run.Reset()
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func styled(profile termenv.Profile, s string, color Color) string {
	if s == "" || color.Default || profile == termenv.Ascii {
		return s
	}
	return profile.String(s).Foreground(profile.Color(color.Hex())).String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
