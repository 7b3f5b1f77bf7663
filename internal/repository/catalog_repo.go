package repository

import (
	"context"
	"errors"
	"fmt"

	"rawvariant/internal/model"
	"rawvariant/internal/pairing"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository is the GORM implementation of pairing.Store.
// The service depends on pairing.Store, not on this type, so unit tests can
// run against the in-memory store.
type CatalogRepository interface {
	pairing.Store

	// DB exposes the underlying *gorm.DB (health checks, CLI).
	DB() *gorm.DB
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepository(db *gorm.DB) CatalogRepository { return &catalogRepo{db: db} }

func (r *catalogRepo) DB() *gorm.DB { return r.db }

// notFound maps GORM's sentinel to the one the service understands.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pairing.ErrNotFound
	}
	return err
}

func (r *catalogRepo) Transaction(ctx context.Context, fn func(tx pairing.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&catalogRepo{db: tx})
	})
}

// ── Templates ────────────────────────────────────────────────────────────────

func (r *catalogRepo) CreateTemplate(ctx context.Context, t *model.Template) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (r *catalogRepo) FindTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var t model.Template
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *catalogRepo) FindTemplates(ctx context.Context, ids []uuid.UUID) ([]model.Template, error) {
	list := []model.Template{}
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}

func (r *catalogRepo) ListTemplates(ctx context.Context) ([]model.Template, error) {
	list := []model.Template{}
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) WriteTemplate(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Template{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pairing.ErrNotFound
	}
	return nil
}

// ── Products ─────────────────────────────────────────────────────────────────

func (r *catalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *catalogRepo) FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	list := []model.Product{p}
	if err := r.attachPairings(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *catalogRepo) FindProducts(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	list := []model.Product{}
	if len(ids) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, r.attachPairings(ctx, list)
}

func (r *catalogRepo) SearchProducts(ctx context.Context, f pairing.ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})

	if f.TemplateID != nil {
		q = q.Where("template_id = ?", *f.TemplateID)
	}
	if f.HasRawProducts != nil {
		// the flag lives on the template
		sub := r.db.WithContext(ctx).Model(&model.Template{}).
			Select("id").
			Where("has_raw_products = ?", *f.HasRawProducts)
		q = q.Where("template_id IN (?)", sub)
	}
	if f.IsRawProduct != nil {
		q = q.Where("is_raw_product = ?", *f.IsRawProduct)
	}
	if f.Code != "" {
		q = q.Where("code = ?", f.Code)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}

	list := []model.Product{}
	if err := q.Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, r.attachPairings(ctx, list)
}

func (r *catalogRepo) WriteProduct(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pairing.ErrNotFound
	}
	return nil
}

func (r *catalogRepo) DeleteProducts(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id IN ? OR raw_product_id IN ?", ids, ids).
		Delete(&model.ProductRawProduct{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", ids).Delete(&model.Product{}).Error
}

// ── Pairings ─────────────────────────────────────────────────────────────────

// Link inserts the pairing row. A unique index hit means a concurrent batch
// paired one of the two products first.
func (r *catalogRepo) Link(ctx context.Context, mainID, rawID uuid.UUID) error {
	err := r.db.WithContext(ctx).Create(&model.ProductRawProduct{
		ProductID:    mainID,
		RawProductID: rawID,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &pairing.AlreadyPairedError{
			ProductID: mainID, Product: mainID.String(),
			CounterpartID: rawID, Counterpart: rawID.String(),
		}
	}
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", mainID, rawID, err)
	}
	return nil
}

// attachPairings fills RawProductID / MainProductID from the pairing table.
func (r *catalogRepo) attachPairings(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var links []model.ProductRawProduct
	if err := r.db.WithContext(ctx).
		Where("product_id IN ? OR raw_product_id IN ?", ids, ids).
		Find(&links).Error; err != nil {
		return err
	}

	rawOf := make(map[uuid.UUID]uuid.UUID, len(links))
	mainOf := make(map[uuid.UUID]uuid.UUID, len(links))
	for _, l := range links {
		rawOf[l.ProductID] = l.RawProductID
		mainOf[l.RawProductID] = l.ProductID
	}
	for i := range products {
		if raw, ok := rawOf[products[i].ID]; ok {
			products[i].RawProductID = &raw
		}
		if main, ok := mainOf[products[i].ID]; ok {
			products[i].MainProductID = &main
		}
	}
	return nil
}
