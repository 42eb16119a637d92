/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

const (
	GridColumns = 3
	GridRows    = 3
	GridCells   = GridColumns * GridRows

	// DefaultCellSize is the pixel width and height of one grid cell.
	DefaultCellSize = 600

	gridPixelInset = 100
)

// Cell is a 1-indexed grid coordinate.
type Cell struct {
	X int `json:"gridX"`
	Y int `json:"gridY"`
}

func (c Cell) Valid() bool {
	return c.X >= 1 && c.X <= GridColumns && c.Y >= 1 && c.Y <= GridRows
}

// AllCells returns every cell, row by row.
func AllCells() []Cell {
	cells := make([]Cell, 0, GridCells)
	for y := 1; y <= GridRows; y++ {
		for x := 1; x <= GridColumns; x++ {
			cells = append(cells, Cell{X: x, Y: y})
		}
	}
	return cells
}

// CellGeometry is the pixel box of a grid cell.
type CellGeometry struct {
	CenterX    int
	CenterY    int
	UpperLeftX int
	UpperLeftY int
	Width      int
	Height     int
}

// Geometry maps a cell to pixels for square cells of the given size.
func (c Cell) Geometry(size int) CellGeometry {
	return CellGeometry{
		CenterX:    size*(c.X-1) + size/2,
		CenterY:    size*(c.Y-1) + size/2,
		UpperLeftX: size * (c.X - 1),
		UpperLeftY: size * (c.Y - 1),
		Width:      size,
		Height:     size,
	}
}

// Placement is where one stimulus sits for one role, in grid and pixel space.
type Placement struct {
	Cell
	CenterX    int `json:"centerX"`
	CenterY    int `json:"centerY"`
	UpperLeftX int `json:"upperLeftX"`
	UpperLeftY int `json:"upperLeftY"`
	TrueX      int `json:"trueX"`
	TrueY      int `json:"trueY"`
	GridPixelX int `json:"gridPixelX"`
	GridPixelY int `json:"gridPixelY"`
}

// place centers an object of the given size in cell c.
func place(c Cell, cellSize, width, height int) Placement {
	g := c.Geometry(cellSize)
	return Placement{
		Cell:       c,
		CenterX:    g.CenterX,
		CenterY:    g.CenterY,
		UpperLeftX: g.UpperLeftX,
		UpperLeftY: g.UpperLeftY,
		TrueX:      g.CenterX - width/2,
		TrueY:      g.CenterY - height/2,
		GridPixelX: g.CenterX - gridPixelInset,
		GridPixelY: g.CenterY - gridPixelInset,
	}
}
