package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a concrete variant of a Template.
//
// RawProductID and MainProductID are not columns: they mirror the single
// ProductRawProduct row the product takes part in and are filled by the
// repository on every read. RawProductID is only ever set on a main product,
// MainProductID only on a raw product.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TemplateID   uuid.UUID `gorm:"type:uuid;index;not null"`
	SuffixCode   string    `gorm:"not null;default:''"`
	Code         string    `gorm:"index;not null;default:''"` // derived, see pairing.DeriveCode
	IsRawProduct bool      `gorm:"not null;default:false"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	RawProductID  *uuid.UUID `gorm:"-"`
	MainProductID *uuid.UUID `gorm:"-"`

	Template *Template `gorm:"foreignKey:TemplateID"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Counterpart returns the id of the other member of the product's pairing.
func (p *Product) Counterpart() *uuid.UUID {
	if p.IsRawProduct {
		return p.MainProductID
	}
	return p.RawProductID
}

// Paired reports whether the product takes part in any pairing.
func (p *Product) Paired() bool {
	return p.RawProductID != nil || p.MainProductID != nil
}

// DisplayName identifies the product in user facing messages.
func (p *Product) DisplayName() string {
	if p.Code != "" {
		return p.Code
	}
	return p.ID.String()
}
