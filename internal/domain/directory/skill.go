package directory

import "github.com/google/uuid"

// Skill is a free-form skill tag profiles can attach
type Skill struct {
	ID      uuid.UUID
	Name    string
	Visible bool
}
