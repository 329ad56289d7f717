package model

import "errors"

var (
	ErrUnknownKind  = errors.New("unknown obstacle kind")
	ErrUnknownShape = errors.New("unknown shape payload")
)
