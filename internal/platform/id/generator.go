package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque row identifiers.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 values.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// Sequence is a deterministic generator for tests and fixtures.
type Sequence struct {
	Prefix string
	next   int
}

func (s *Sequence) NewID() (string, error) {
	s.next++
	return fmt.Sprintf("%s%d", s.Prefix, s.next), nil
}
