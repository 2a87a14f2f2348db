package repository

import (
	"fmt"

	"github.com/yourusername/surebet-tool/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Event   EventRepository
	Surebet SurebetRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Event:   NewPostgresEventRepository(db),
		Surebet: NewPostgresSurebetRepository(db),
	}, nil
}
