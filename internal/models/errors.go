package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// ErrRunFinished is returned for any mutation attempted after settlement.
var ErrRunFinished = fmt.Errorf("%w: simulation has finished", ErrInvalidInput)
