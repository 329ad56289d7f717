package model

import (
	"fmt"
	"strings"
)

// Kind identifies the obstacle variant carried by a RenderEntity.
// It doubles as the engine's obstacle mode.
type Kind uint8

const (
	KindCircle Kind = iota
	KindCompoundBlock
	KindTextBubble
	KindCrack
	KindImage
)

var kindNames = [...]string{
	KindCircle:        "circle",
	KindCompoundBlock: "block",
	KindTextBubble:    "text",
	KindCrack:         "crack",
	KindImage:         "image",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Physical reports whether obstacles of this kind live in the rigid-body world.
func (k Kind) Physical() bool {
	return k != KindCrack
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

// ParseKind accepts the names produced by Kind.String (case-insensitive).
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Shape is the closed set of kind-specific payloads. Only the types in this
// package implement it.
type Shape interface {
	Kind() Kind
	shape()
}

// Circle is a falling rock.
type Circle struct {
	Radius float64
}

// CompoundBlock is a tetromino made of four fused square blocks.
type CompoundBlock struct {
	BlockSize float64
	Tetromino Tetromino
}

// TextBubble is a rectangular box carrying a phrase.
type TextBubble struct {
	Width  float64
	Height float64
	Text   string
	Color  uint32
}

// Crack is a static screen decoration that never enters the physics world.
type Crack struct {
	Radius float64
}

// Image is a box textured with a user supplied picture.
type Image struct {
	Width  float64
	Height float64
	Ref    string
}

func (Circle) Kind() Kind        { return KindCircle }
func (CompoundBlock) Kind() Kind { return KindCompoundBlock }
func (TextBubble) Kind() Kind    { return KindTextBubble }
func (Crack) Kind() Kind         { return KindCrack }
func (Image) Kind() Kind         { return KindImage }

func (Circle) shape()        {}
func (CompoundBlock) shape() {}
func (TextBubble) shape()    {}
func (Crack) shape()         {}
func (Image) shape()         {}

// RenderEntity is one frame's worth of data about a single obstacle.
// Positions are in pixels, rotation in degrees. Every field, including the
// shape payload, has value semantics: copying the struct copies everything.
type RenderEntity struct {
	ID       uint64
	X        float64
	Y        float64
	Rotation float64
	Shape    Shape
}

// Kind returns the variant of the entity's shape. Entities without a shape
// report KindCircle.
func (e RenderEntity) Kind() Kind {
	if e.Shape == nil {
		return KindCircle
	}
	return e.Shape.Kind()
}
