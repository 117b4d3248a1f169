package viz

import (
	"fmt"
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ProfileCanvas draws values against height z with z increasing upwards.
// NaN values break the line.
func ProfileCanvas(z, values []float64, w, h int) (*Canvas, error) {
	if len(z) != len(values) {
		return nil, fmt.Errorf("viz: %d heights for %d values", len(z), len(values))
	}
	c := NewCanvas(w, h)
	if len(z) == 0 {
		return c, nil
	}

	xlo, xhi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		xlo = math.Min(xlo, v)
		xhi = math.Max(xhi, v)
	}
	if math.IsInf(xlo, 1) {
		return c, nil
	}
	if xhi == xlo {
		xhi = xlo + 1
	}
	zlo, zhi := z[0], z[len(z)-1]
	if zhi == zlo {
		zhi = zlo + 1
	}

	px := func(v float64) int { return int(math.Round((v - xlo) / (xhi - xlo) * float64(w*2-1))) }
	py := func(zz float64) int { return int(math.Round((zhi - zz) / (zhi - zlo) * float64(h*4-1))) }

	prev := -1
	for i := range z {
		if math.IsNaN(values[i]) {
			prev = -1
			continue
		}
		if prev < 0 {
			c.Set(px(values[i]), py(z[i]))
		} else {
			c.DrawLine(px(values[prev]), py(z[prev]), px(values[i]), py(z[i]))
		}
		prev = i
	}
	return c, nil
}
