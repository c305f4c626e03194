package viz

import (
	"math"
	"strings"
)

const brailleBase = 0x2800

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille pixel grid. Its resolution in dots is
// (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// DotsX and DotsY return the canvas size in dots.
func (c *Canvas) DotsX() int { return c.Width * 2 }
func (c *Canvas) DotsY() int { return c.Height * 4 }

// Set lights the dot at (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.DotsX() || y >= c.DotsY() {
		return
	}
	c.Grid[y/4][x/2] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine draws a line between two dots using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
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

// Bounds is a world-coordinate window mapped onto a canvas.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// FitBounds returns the bounding window of the given curves with a 5%
// margin. When equal is set the window is squared so circles stay round.
func FitBounds(equal bool, curves ...[][2]float64) Bounds {
	b := Bounds{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}
	for _, pts := range curves {
		for _, p := range pts {
			b.MinX = math.Min(b.MinX, p[0])
			b.MaxX = math.Max(b.MaxX, p[0])
			b.MinY = math.Min(b.MinY, p[1])
			b.MaxY = math.Max(b.MaxY, p[1])
		}
	}
	if math.IsInf(b.MinX, 1) {
		return Bounds{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1}
	}
	if equal {
		cx, cy := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
		half := math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY) / 2
		b = Bounds{MinX: cx - half, MaxX: cx + half, MinY: cy - half, MaxY: cy + half}
	}
	padX := math.Max((b.MaxX-b.MinX)*0.05, 1e-9)
	padY := math.Max((b.MaxY-b.MinY)*0.05, 1e-9)
	return Bounds{MinX: b.MinX - padX, MaxX: b.MaxX + padX, MinY: b.MinY - padY, MaxY: b.MaxY + padY}
}

// toDot maps a world point to canvas dots; y grows downward on screen.
func (c *Canvas) toDot(b Bounds, x, y float64) (int, int) {
	px := (x - b.MinX) / (b.MaxX - b.MinX) * float64(c.DotsX()-1)
	py := (b.MaxY - y) / (b.MaxY - b.MinY) * float64(c.DotsY()-1)
	return int(math.Round(px)), int(math.Round(py))
}

// Polyline draws a connected world-coordinate curve.
func (c *Canvas) Polyline(b Bounds, pts [][2]float64) {
	for i, p := range pts {
		x, y := c.toDot(b, p[0], p[1])
		if i == 0 {
			c.Set(x, y)
			continue
		}
		px, py := c.toDot(b, pts[i-1][0], pts[i-1][1])
		c.DrawLine(px, py, x, y)
	}
}

// Marker draws a small cross at a world point.
func (c *Canvas) Marker(b Bounds, x, y float64) {
	px, py := c.toDot(b, x, y)
	c.DrawLine(px-1, py, px+1, py)
	c.DrawLine(px, py-1, px, py+1)
}

func (c *Canvas) String() string {
	var sb strings.Builder
	for _, row := range c.Grid {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
