package model

import (
	"fmt"
)

// Point is a cell on the city grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Sub returns the component-wise difference p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// IsZero reports whether both components are zero.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// String renders the point as (x,y).
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Distance returns the Manhattan distance between a and b.
func Distance(a, b Point) int {
	d := b.Sub(a)
	return abs(d.X) + abs(d.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Grid is the fixed rectangular city [0, Width) x [0, Height).
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks that both dimensions are positive.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", g.Width, g.Height)
	}
	return nil
}

// Contains reports whether p lies inside the grid.
func (g Grid) Contains(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.Width && p.Y < g.Height
}
