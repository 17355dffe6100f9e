package repositories

import (
	"TradeSimulator/internal/models"
	"errors"
	"fmt"
)

// PositionRepository is the in-memory position book of one simulation.
// It keeps insertion order and hands out copies so callers cannot mutate
// lots behind its back.
type PositionRepository struct {
	positions []*models.Position
}

// NewPositionRepository creates an empty position book
func NewPositionRepository() *PositionRepository {
	return &PositionRepository{}
}

// Create appends a new open lot
func (r *PositionRepository) Create(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	if position.ID == "" {
		return errors.New("invalid id")
	}
	if position.Quantity <= 0 {
		return fmt.Errorf("position %s: quantity must be positive", position.ID)
	}
	if r.indexOf(position.ID) >= 0 {
		return fmt.Errorf("position %s already exists", position.ID)
	}
	stored := *position
	r.positions = append(r.positions, &stored)
	return nil
}

// FindByID retrieves a copy of a lot, or nil when it is not in the book
func (r *PositionRepository) FindByID(id string) (*models.Position, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}
	i := r.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	position := *r.positions[i]
	return &position, nil
}

// Update replaces an existing lot in place, keeping its book order
func (r *PositionRepository) Update(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	if position.Quantity <= 0 {
		return fmt.Errorf("position %s: quantity must be positive", position.ID)
	}
	i := r.indexOf(position.ID)
	if i < 0 {
		return fmt.Errorf("position %s: %w", position.ID, models.ErrNotFound)
	}
	stored := *position
	r.positions[i] = &stored
	return nil
}

// Delete removes a lot from the book
func (r *PositionRepository) Delete(id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("position %s: %w", id, models.ErrNotFound)
	}
	r.positions = append(r.positions[:i], r.positions[i+1:]...)
	return nil
}

// FindAll returns copies of every open lot in insertion order
func (r *PositionRepository) FindAll() []models.Position {
	positions := make([]models.Position, 0, len(r.positions))
	for _, p := range r.positions {
		positions = append(positions, *p)
	}
	return positions
}

// FindByMode returns copies of the open lots held in the given mode
func (r *PositionRepository) FindByMode(mode models.TradeMode) []models.Position {
	var positions []models.Position
	for _, p := range r.positions {
		if p.Mode == mode {
			positions = append(positions, *p)
		}
	}
	return positions
}

func (r *PositionRepository) Count() int {
	return len(r.positions)
}

func (r *PositionRepository) indexOf(id string) int {
	for i, p := range r.positions {
		if p.ID == id {
			return i
		}
	}
	return -1
}
