package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRawProduct links exactly one main product to exactly one raw product.
// Each side is unique: a product is main in at most one row and raw in at most
// one row. Rows disappear with either member.
type ProductRawProduct struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_pairing_main;not null"`
	RawProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_pairing_raw;not null"`

	Product    *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	RawProduct *Product `gorm:"foreignKey:RawProductID;constraint:OnDelete:CASCADE"`
}

func (ProductRawProduct) TableName() string { return "product_raw_products" }

func (l *ProductRawProduct) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
