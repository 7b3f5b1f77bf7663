package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is the product definition shared by its variants.
// HasRawProducts=true means every variant must belong to exactly one
// raw/main pairing (see ProductRawProduct).
type Template struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"index;not null"`
	Code           string    `gorm:"not null;default:''"` // base code, prepended to variant suffixes
	HasRawProducts bool      `gorm:"not null;default:false"`
	Active         bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Products []Product `gorm:"foreignKey:TemplateID"`
}

func (Template) TableName() string { return "product_templates" }

// BeforeCreate assigns the primary key client-side so the same model works on
// Postgres and on the SQLite databases used by tests.
func (t *Template) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
