package pairing

import (
	"context"

	"rawvariant/internal/model"

	"github.com/google/uuid"
)

// ProductFilter narrows SearchProducts. Zero values do not filter.
type ProductFilter struct {
	TemplateID *uuid.UUID
	// HasRawProducts filters through the flag of the product's template.
	HasRawProducts *bool
	IsRawProduct   *bool
	Code           string
	Active         *bool
}

// Store is the transactional object store the service runs on. Products
// returned by the store always carry RawProductID / MainProductID.
//
// WriteProduct applies a field-level change set (column name → value) to a
// single product. Link inserts a pairing row and must fail when either side
// is already paired.
type Store interface {
	// Transaction runs fn against a store bound to one atomic transaction.
	// Any error returned by fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateTemplate(ctx context.Context, t *model.Template) error
	FindTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error)
	FindTemplates(ctx context.Context, ids []uuid.UUID) ([]model.Template, error)
	ListTemplates(ctx context.Context) ([]model.Template, error)
	WriteTemplate(ctx context.Context, id uuid.UUID, changes map[string]any) error

	CreateProduct(ctx context.Context, p *model.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	SearchProducts(ctx context.Context, f ProductFilter) ([]model.Product, error)
	WriteProduct(ctx context.Context, id uuid.UUID, changes map[string]any) error
	// DeleteProducts removes the products and every pairing row naming them.
	DeleteProducts(ctx context.Context, ids []uuid.UUID) error

	Link(ctx context.Context, mainID, rawID uuid.UUID) error
}

// Invalidator is told which product codes a committed batch touched, old and
// new. Implementations must tolerate duplicates and empty codes.
type Invalidator interface {
	Invalidate(ctx context.Context, codes ...string)
}
