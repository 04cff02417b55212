package service

import (
	"fmt"
	"strings"

	"github.com/marinedrive/phyto-backend/internal/icons"
)

// IconService lists species illustrations and resolves names to files
type IconService struct {
	dir icons.Dir
}

// NewIconService creates a new icon service
func NewIconService(dir icons.Dir) *IconService {
	return &IconService{dir: dir}
}

// List returns every icon file name
func (s *IconService) List() ([]string, error) {
	files, err := s.dir.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list icons: %w", err)
	}
	return files, nil
}

// Match returns the icon file best matching a species name, or "" when none fits
func (s *IconService) Match(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptySpecies
	}
	files, err := s.List()
	if err != nil {
		return "", err
	}
	return icons.BestMatch(name, files), nil
}
