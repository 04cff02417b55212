package service

import "errors"

var (
	// ErrEmptySpecies is returned when a request names no species
	ErrEmptySpecies = errors.New("missing species")
	// ErrInvalidBody is returned when a write body has the wrong shape
	ErrInvalidBody = errors.New("invalid body")
	// ErrInvalidOption is returned for a non-positive grid resolution or marker limit
	ErrInvalidOption = errors.New("invalid derivation option")
)
