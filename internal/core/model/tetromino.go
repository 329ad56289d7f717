package model

// Offset is a sub-block center relative to the compound body's origin,
// measured in block units.
type Offset struct {
	X float64
	Y float64
}

// Tetromino describes one of the seven compound block layouts.
type Tetromino struct {
	Name    string
	Color   uint32 // ARGB
	Offsets [4]Offset
}

// Muted palette, one color per layout.
var tetrominoes = [...]Tetromino{
	{Name: "I", Color: 0xFF7DA7D9, Offsets: [4]Offset{{-1.5, 0}, {-0.5, 0}, {0.5, 0}, {1.5, 0}}},
	{Name: "J", Color: 0xFF8FA3B8, Offsets: [4]Offset{{-1, -0.5}, {-1, 0.5}, {0, 0.5}, {1, 0.5}}},
	{Name: "L", Color: 0xFFE0B08E, Offsets: [4]Offset{{-1, 0.5}, {0, 0.5}, {1, 0.5}, {1, -0.5}}},
	{Name: "O", Color: 0xFFE6D690, Offsets: [4]Offset{{-0.5, -0.5}, {0.5, -0.5}, {-0.5, 0.5}, {0.5, 0.5}}},
	{Name: "S", Color: 0xFFA2BFA2, Offsets: [4]Offset{{-1, 0.5}, {0, 0.5}, {0, -0.5}, {1, -0.5}}},
	{Name: "T", Color: 0xFFBCA2C7, Offsets: [4]Offset{{-1, 0.5}, {0, 0.5}, {1, 0.5}, {0, -0.5}}},
	{Name: "Z", Color: 0xFFD68C8C, Offsets: [4]Offset{{-1, -0.5}, {0, -0.5}, {0, 0.5}, {1, 0.5}}},
}

// Tetrominoes returns a copy of the predefined layouts.
func Tetrominoes() []Tetromino {
	out := make([]Tetromino, len(tetrominoes))
	copy(out, tetrominoes[:])
	return out
}

// TetrominoCount is the number of predefined layouts.
func TetrominoCount() int { return len(tetrominoes) }

// TetrominoAt returns the i-th layout, wrapping out of range indexes.
func TetrominoAt(i int) Tetromino {
	n := len(tetrominoes)
	return tetrominoes[((i%n)+n)%n]
}
