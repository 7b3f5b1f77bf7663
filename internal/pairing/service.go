// Package pairing keeps raw and main product variants paired.
//
// A template marked "has raw products" owns variants that come in pairs: the
// raw-material form of an item and its main (sellable) form. The Service
// creates the missing member of a pair, derives codes from the configured
// prefixes and rejects any batch that would leave a variant unpaired, paired
// twice, or paired in a role that contradicts its flag.
package pairing

import (
	"context"
	"errors"
	"fmt"

	"rawvariant/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NewProduct is the input of a variant creation. RawProductID (on a main) or
// MainProductID (on a raw) pairs the new variant with an existing one instead
// of cloning a counterpart.
type NewProduct struct {
	TemplateID    uuid.UUID
	SuffixCode    string
	IsRawProduct  bool
	RawProductID  *uuid.UUID
	MainProductID *uuid.UUID
}

// NewTemplate creates a template together with its first variants.
type NewTemplate struct {
	Name           string
	Code           string
	HasRawProducts bool
	Variants       []NewProduct // TemplateID is ignored
}

// TemplateChanges is a partial template update. Nil fields are left alone.
type TemplateChanges struct {
	Name           *string
	Code           *string
	HasRawProducts *bool
	Active         *bool
}

// ProductChanges is a partial variant update. Nil fields are left alone.
type ProductChanges struct {
	SuffixCode   *string
	IsRawProduct *bool
	Active       *bool
}

type Service struct {
	store Store
	cfg   Config
	inv   Invalidator
}

// NewService returns a service over store. inv may be nil.
func NewService(store Store, cfg Config, inv Invalidator) *Service {
	if cfg.Primary == "" {
		cfg.Primary = PrimaryMain
	}
	return &Service{store: store, cfg: cfg, inv: inv}
}

func (s *Service) Config() Config { return s.cfg }

// ── Templates ────────────────────────────────────────────────────────────────

// CreateTemplate creates the template and then each variant through the same
// path as CreateProducts, so raw-enabled templates come out fully paired.
func (s *Service) CreateTemplate(ctx context.Context, in NewTemplate) (*model.Template, []model.Product, error) {
	var (
		tpl      *model.Template
		products []model.Product
	)
	err := s.run(ctx, func(b *batch) error {
		tpl = &model.Template{
			Name:           in.Name,
			Code:           in.Code,
			HasRawProducts: in.HasRawProducts,
			Active:         true,
		}
		if err := b.tx.CreateTemplate(ctx, tpl); err != nil {
			return err
		}
		b.templates[tpl.ID] = tpl

		ids := make([]uuid.UUID, 0, len(in.Variants))
		for _, v := range in.Variants {
			v.TemplateID = tpl.ID
			p, err := s.create(ctx, b, v)
			if err != nil {
				return err
			}
			ids = append(ids, p.ID)
		}
		var err error
		products, err = s.reload(ctx, b.tx, ids)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return tpl, products, nil
}

// UpdateTemplate writes the changes, provisions counterparts when the
// template becomes raw-enabled and re-derives the codes of its variants.
// Disabling raw products on a template that still has pairings fails the
// validation gate with UnexpectedPairingError.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, ch TemplateChanges) (*model.Template, error) {
	var tpl *model.Template
	err := s.run(ctx, func(b *batch) error {
		before, err := b.template(ctx, id)
		if err != nil {
			return err
		}

		changes := make(map[string]any)
		if ch.Name != nil {
			changes["name"] = *ch.Name
		}
		if ch.Code != nil && *ch.Code != before.Code {
			changes["code"] = *ch.Code
		}
		if ch.HasRawProducts != nil && *ch.HasRawProducts != before.HasRawProducts {
			changes["has_raw_products"] = *ch.HasRawProducts
		}
		if ch.Active != nil {
			changes["active"] = *ch.Active
		}
		if len(changes) == 0 {
			tpl = before
			return nil
		}
		enabling := ch.HasRawProducts != nil && *ch.HasRawProducts && !before.HasRawProducts
		_, codeChanged := changes["code"]
		_, flagChanged := changes["has_raw_products"]

		if err := b.tx.WriteTemplate(ctx, id, changes); err != nil {
			return err
		}
		b.forgetTemplate(id)
		if tpl, err = b.template(ctx, id); err != nil {
			return err
		}

		products, err := b.tx.SearchProducts(ctx, ProductFilter{TemplateID: &id})
		if err != nil {
			return err
		}
		for _, p := range products {
			b.touch(p.ID)
		}

		if enabling && !AutoProvisionSuppressed(ctx) {
			if err := s.provisionMissing(ctx, b, tpl, products); err != nil {
				return err
			}
		}
		if codeChanged || flagChanged {
			if _, err := s.syncTemplateCodes(ctx, b, tpl); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// provisionMissing pairs every unpaired variant of a template that was just
// raw-enabled. Under PrimaryRaw unpaired main variants are turned into raw
// variants first, so the clones are always the main members.
func (s *Service) provisionMissing(ctx context.Context, b *batch, tpl *model.Template, products []model.Product) error {
	for i := range products {
		p := &products[i]
		if p.Paired() {
			continue
		}
		if s.cfg.Primary == PrimaryRaw && !p.IsRawProduct {
			if err := b.tx.WriteProduct(ctx, p.ID, map[string]any{"is_raw_product": true}); err != nil {
				return err
			}
			p.IsRawProduct = true
		}
		if _, err := s.provisionCounterpart(ctx, b, tpl, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	return s.store.FindTemplate(ctx, id)
}

// MainProducts lists the main variants of a raw-enabled template; empty for
// any other template.
func (s *Service) MainProducts(ctx context.Context, templateID uuid.UUID) ([]model.Product, error) {
	return s.variantsByRole(ctx, templateID, false)
}

// RawProducts lists the raw variants of a raw-enabled template; empty for
// any other template.
func (s *Service) RawProducts(ctx context.Context, templateID uuid.UUID) ([]model.Product, error) {
	return s.variantsByRole(ctx, templateID, true)
}

func (s *Service) variantsByRole(ctx context.Context, templateID uuid.UUID, raw bool) ([]model.Product, error) {
	tpl, err := s.store.FindTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.HasRawProducts {
		return []model.Product{}, nil
	}
	return s.store.SearchProducts(ctx, ProductFilter{TemplateID: &templateID, IsRawProduct: &raw})
}

// ── Products ─────────────────────────────────────────────────────────────────

// CreateProducts creates the variants in one transaction and returns them in
// input order. Counterparts cloned along the way are not part of the result;
// they are reachable through RawProductID / MainProductID.
func (s *Service) CreateProducts(ctx context.Context, inputs []NewProduct) ([]model.Product, error) {
	var products []model.Product
	err := s.run(ctx, func(b *batch) error {
		ids := make([]uuid.UUID, 0, len(inputs))
		for _, in := range inputs {
			p, err := s.create(ctx, b, in)
			if err != nil {
				return err
			}
			ids = append(ids, p.ID)
		}
		var err error
		products, err = s.reload(ctx, b.tx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) create(ctx context.Context, b *batch, in NewProduct) (*model.Product, error) {
	tpl, err := b.template(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	provision := tpl.HasRawProducts && !AutoProvisionSuppressed(ctx)

	p := &model.Product{
		TemplateID:   tpl.ID,
		SuffixCode:   in.SuffixCode,
		IsRawProduct: in.IsRawProduct,
		Active:       true,
	}
	if provision && s.cfg.Primary == PrimaryRaw && in.RawProductID == nil {
		p.IsRawProduct = true
	}
	p.Code = DeriveCode(s.cfg, tpl, p)
	if err := b.tx.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	b.touch(p.ID)
	b.codeTouched(p.Code)

	if in.RawProductID != nil {
		if err := s.link(ctx, b, p.ID, *in.RawProductID); err != nil {
			return nil, err
		}
		p.RawProductID = in.RawProductID
	}
	if in.MainProductID != nil {
		if err := s.link(ctx, b, *in.MainProductID, p.ID); err != nil {
			return nil, err
		}
		p.MainProductID = in.MainProductID
	}

	if provision && !p.Paired() {
		if _, err := s.provisionCounterpart(ctx, b, tpl, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// provisionCounterpart copies p with its role flipped and the new-to-old
// pairing link set. The copy is created with auto-provisioning suppressed.
func (s *Service) provisionCounterpart(ctx context.Context, b *batch, tpl *model.Template, p *model.Product) (*model.Product, error) {
	clone := NewProduct{
		TemplateID:   p.TemplateID,
		SuffixCode:   p.SuffixCode,
		IsRawProduct: !p.IsRawProduct,
	}
	if p.IsRawProduct {
		clone.RawProductID = &p.ID
	} else {
		clone.MainProductID = &p.ID
	}

	c, err := s.create(WithoutAutoProvision(ctx), b, clone)
	if err != nil {
		return nil, err
	}
	if _, err := s.syncCode(ctx, b, tpl, c); err != nil {
		return nil, err
	}
	if p.IsRawProduct {
		p.MainProductID = &c.ID
	} else {
		p.RawProductID = &c.ID
	}
	b.provisioned++

	role := "raw"
	if !c.IsRawProduct {
		role = "main"
	}
	log.Info().
		Str("template_id", tpl.ID.String()).
		Str("product_id", p.ID.String()).
		Str("counterpart_id", c.ID.String()).
		Str("counterpart_role", role).
		Str("code", c.Code).
		Msg("counterpart created")
	return c, nil
}

// link pairs mainID with rawID after checking that both exist, share the
// template and are not paired yet on the side they would take.
func (s *Service) link(ctx context.Context, b *batch, mainID, rawID uuid.UUID) error {
	pair, err := b.tx.FindProducts(ctx, []uuid.UUID{mainID, rawID})
	if err != nil {
		return err
	}
	var main, raw *model.Product
	for i := range pair {
		switch pair[i].ID {
		case mainID:
			main = &pair[i]
		case rawID:
			raw = &pair[i]
		}
	}
	if main == nil {
		return fmt.Errorf("main variant %s: %w", mainID, ErrNotFound)
	}
	if raw == nil {
		return fmt.Errorf("raw variant %s: %w", rawID, ErrNotFound)
	}

	if main.TemplateID != raw.TemplateID {
		return &TemplateMismatchError{
			ProductID: main.ID, Product: main.DisplayName(),
			CounterpartID: raw.ID, Counterpart: raw.DisplayName(),
		}
	}
	if raw.MainProductID != nil {
		return &AlreadyPairedError{
			ProductID: main.ID, Product: main.DisplayName(),
			CounterpartID: raw.ID, Counterpart: raw.DisplayName(),
		}
	}
	if main.RawProductID != nil {
		return &AlreadyPairedError{
			ProductID: raw.ID, Product: raw.DisplayName(),
			CounterpartID: main.ID, Counterpart: main.DisplayName(),
		}
	}

	if err := b.tx.Link(ctx, mainID, rawID); err != nil {
		return err
	}
	b.touch(mainID, rawID)
	return nil
}

// UpdateProduct writes the changes and re-derives the code when the role or
// the suffix changed.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, ch ProductChanges) (*model.Product, error) {
	var out *model.Product
	err := s.run(ctx, func(b *batch) error {
		p, err := b.tx.FindProduct(ctx, id)
		if err != nil {
			return err
		}
		tpl, err := b.template(ctx, p.TemplateID)
		if err != nil {
			return err
		}
		b.touch(p.ID)
		if cp := p.Counterpart(); cp != nil {
			b.touch(*cp)
		}

		changes := make(map[string]any)
		if ch.SuffixCode != nil && *ch.SuffixCode != p.SuffixCode {
			changes["suffix_code"] = *ch.SuffixCode
			p.SuffixCode = *ch.SuffixCode
		}
		if ch.IsRawProduct != nil && *ch.IsRawProduct != p.IsRawProduct {
			changes["is_raw_product"] = *ch.IsRawProduct
			p.IsRawProduct = *ch.IsRawProduct
		}
		if ch.Active != nil && *ch.Active != p.Active {
			changes["active"] = *ch.Active
			p.Active = *ch.Active
		}
		if len(changes) > 0 {
			if err := b.tx.WriteProduct(ctx, id, changes); err != nil {
				return err
			}
		}
		_, suffixChanged := changes["suffix_code"]
		_, roleChanged := changes["is_raw_product"]
		if suffixChanged || roleChanged {
			if _, err := s.syncCode(ctx, b, tpl, p); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.store.FindProduct(ctx, id)
}

func (s *Service) SearchProducts(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	return s.store.SearchProducts(ctx, f)
}

// FindByCode returns the first variant whose derived code equals code.
func (s *Service) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	if code == "" {
		return nil, ErrNotFound
	}
	list, err := s.store.SearchProducts(ctx, ProductFilter{Code: code})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// ── Codes ────────────────────────────────────────────────────────────────────

// syncCode writes the derived code of p when it differs from the stored one.
func (s *Service) syncCode(ctx context.Context, b *batch, tpl *model.Template, p *model.Product) (bool, error) {
	code := DeriveCode(s.cfg, tpl, p)
	if code == p.Code {
		return false, nil
	}
	if err := b.tx.WriteProduct(ctx, p.ID, map[string]any{"code": code}); err != nil {
		return false, err
	}
	b.codeTouched(p.Code, code)
	b.rewritten++
	p.Code = code
	return true, nil
}

func (s *Service) syncTemplateCodes(ctx context.Context, b *batch, tpl *model.Template) (int, error) {
	products, err := b.tx.SearchProducts(ctx, ProductFilter{TemplateID: &tpl.ID})
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range products {
		changed, err := s.syncCode(ctx, b, tpl, &products[i])
		if err != nil {
			return n, err
		}
		if changed {
			n++
		}
	}
	return n, nil
}

// RecomputeCodes re-derives the codes of one template's variants, or of every
// template when templateID is nil, and returns how many codes were rewritten.
// Needed after the prefixes or the separator changed.
func (s *Service) RecomputeCodes(ctx context.Context, templateID *uuid.UUID) (int, error) {
	total := 0
	err := s.run(ctx, func(b *batch) error {
		var templates []model.Template
		if templateID != nil {
			tpl, err := b.template(ctx, *templateID)
			if err != nil {
				return err
			}
			templates = []model.Template{*tpl}
		} else {
			var err error
			if templates, err = b.tx.ListTemplates(ctx); err != nil {
				return err
			}
		}
		for i := range templates {
			n, err := s.syncTemplateCodes(ctx, b, &templates[i])
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int("rewritten", total).Msg("product codes recomputed")
	return total, nil
}

// reload reads ids back in the given order.
func (s *Service) reload(ctx context.Context, st Store, ids []uuid.UUID) ([]model.Product, error) {
	list, err := st.FindProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Product, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		out = append(out, p)
	}
	return out, nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
