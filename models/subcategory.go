package models

import (
	"time"

	"github.com/google/uuid"
)

type Subcategory struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (Subcategory) TableName() string {
	return "subcategories"
}

func (Subcategory) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS subcategories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(100) NOT NULL,
		description TEXT,
		category_id UUID NOT NULL REFERENCES categories(id),
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		UNIQUE (category_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_subcategories_category ON subcategories(category_id);`
}
