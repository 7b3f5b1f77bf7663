package pairing

import (
	"context"

	"rawvariant/internal/model"

	"github.com/google/uuid"
)

// Finding is one pairing problem found by Audit.
type Finding struct {
	ProductID  uuid.UUID
	Code       string
	TemplateID uuid.UUID
	Invariant  string
	Detail     string
}

// Audit scans the whole catalog for data that bypassed the service: role or
// flag contradictions, unpaired variants of raw-enabled templates and pairs
// spanning two templates. It never writes.
func (s *Service) Audit(ctx context.Context) ([]Finding, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	tplByID := make(map[uuid.UUID]*model.Template, len(templates))
	for i := range templates {
		tplByID[templates[i].ID] = &templates[i]
	}

	products, err := s.store.SearchProducts(ctx, ProductFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	findings := []Finding{}
	add := func(p *model.Product, err error) {
		findings = append(findings, Finding{
			ProductID:  p.ID,
			Code:       p.Code,
			TemplateID: p.TemplateID,
			Invariant:  Invariant(err),
			Detail:     err.Error(),
		})
	}
	for i := range products {
		p := &products[i]
		tpl, ok := tplByID[p.TemplateID]
		if !ok {
			continue
		}
		if err := CheckProduct(p, tpl.HasRawProducts); err != nil {
			add(p, err)
			continue
		}
		if !tpl.HasRawProducts {
			continue
		}
		cpID := p.Counterpart()
		if cpID == nil {
			add(p, &MissingCounterpartError{ProductID: p.ID, Product: p.DisplayName()})
			continue
		}
		if cp, ok := byID[*cpID]; ok && cp.TemplateID != p.TemplateID {
			add(p, &TemplateMismatchError{
				ProductID: p.ID, Product: p.DisplayName(),
				CounterpartID: cp.ID, Counterpart: cp.DisplayName(),
			})
		}
	}
	return findings, nil
}
