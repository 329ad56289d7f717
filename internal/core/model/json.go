package model

import (
	"encoding/json"
	"fmt"
)

// wireEntity is the flat JSON form consumed by out-of-process renderers.
type wireEntity struct {
	ID        uint64  `json:"id"`
	Kind      Kind    `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Rotation  float64 `json:"rotation"`
	Radius    float64 `json:"radius,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
	BlockSize float64 `json:"blockSize,omitempty"`
	Text      string  `json:"text,omitempty"`
	Color     uint32  `json:"color,omitempty"`
	Tetromino string  `json:"tetromino,omitempty"`
	ImageRef  string  `json:"imageRef,omitempty"`

	// derived from ID, ignored when decoding
	Branches []CrackBranch `json:"branches,omitempty"`
}

func (e RenderEntity) MarshalJSON() ([]byte, error) {
	w := wireEntity{ID: e.ID, Kind: e.Kind(), X: e.X, Y: e.Y, Rotation: e.Rotation}

	switch s := e.Shape.(type) {
	case nil:
	case Circle:
		w.Radius = s.Radius
	case CompoundBlock:
		w.BlockSize = s.BlockSize
		w.Color = s.Tetromino.Color
		w.Tetromino = s.Tetromino.Name
	case TextBubble:
		w.Width, w.Height = s.Width, s.Height
		w.Text = s.Text
		w.Color = s.Color
	case Crack:
		w.Radius = s.Radius
		w.Branches = CrackBranches(e)
	case Image:
		w.Width, w.Height = s.Width, s.Height
		w.ImageRef = s.Ref
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownShape, e.Shape)
	}

	return json.Marshal(w)
}

func (e *RenderEntity) UnmarshalJSON(data []byte) error {
	var w wireEntity
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := RenderEntity{ID: w.ID, X: w.X, Y: w.Y, Rotation: w.Rotation}
	switch w.Kind {
	case KindCircle:
		out.Shape = Circle{Radius: w.Radius}
	case KindCompoundBlock:
		t, ok := TetrominoByName(w.Tetromino)
		if !ok {
			return fmt.Errorf("%w: tetromino %q", ErrUnknownShape, w.Tetromino)
		}
		out.Shape = CompoundBlock{BlockSize: w.BlockSize, Tetromino: t}
	case KindTextBubble:
		out.Shape = TextBubble{Width: w.Width, Height: w.Height, Text: w.Text, Color: w.Color}
	case KindCrack:
		out.Shape = Crack{Radius: w.Radius}
	case KindImage:
		out.Shape = Image{Width: w.Width, Height: w.Height, Ref: w.ImageRef}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(w.Kind))
	}

	*e = out
	return nil
}

// TetrominoByName looks up a predefined layout.
func TetrominoByName(name string) (Tetromino, bool) {
	for _, t := range tetrominoes {
		if t.Name == name {
			return t, true
		}
	}
	return Tetromino{}, false
}
