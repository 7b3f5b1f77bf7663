// Package pairingtest provides an in-memory pairing.Store for tests.
package pairingtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rawvariant/internal/model"
	"rawvariant/internal/pairing"

	"github.com/google/uuid"
)

// ErrUniqueViolation mimics the unique indexes on the pairing table.
var ErrUniqueViolation = errors.New("unique constraint violated")

type link struct{ main, raw uuid.UUID }

type state struct {
	templates map[uuid.UUID]model.Template
	products  map[uuid.UUID]model.Product
	order     []uuid.UUID // product insertion order
	links     []link
}

func (s *state) clone() *state {
	c := &state{
		templates: make(map[uuid.UUID]model.Template, len(s.templates)),
		products:  make(map[uuid.UUID]model.Product, len(s.products)),
		order:     append([]uuid.UUID(nil), s.order...),
		links:     append([]link(nil), s.links...),
	}
	for k, v := range s.templates {
		c.templates[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	return c
}

// MemStore keeps everything in maps. Transactions work on a copy that is
// swapped in on success, so a failing batch leaves no trace.
type MemStore struct {
	st   *state
	inTx bool

	// Writes counts WriteProduct calls, per product.
	Writes map[uuid.UUID]int
}

var _ pairing.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		st: &state{
			templates: make(map[uuid.UUID]model.Template),
			products:  make(map[uuid.UUID]model.Product),
		},
		Writes: make(map[uuid.UUID]int),
	}
}

func (m *MemStore) Transaction(ctx context.Context, fn func(tx pairing.Store) error) error {
	if m.inTx {
		return fn(m)
	}
	tx := &MemStore{st: m.st.clone(), inTx: true, Writes: make(map[uuid.UUID]int)}
	if err := fn(tx); err != nil {
		return err
	}
	m.st = tx.st
	for id, n := range tx.Writes {
		m.Writes[id] += n
	}
	return nil
}

func (m *MemStore) CreateTemplate(_ context.Context, t *model.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	m.st.templates[t.ID] = *t
	return nil
}

func (m *MemStore) FindTemplate(_ context.Context, id uuid.UUID) (*model.Template, error) {
	t, ok := m.st.templates[id]
	if !ok {
		return nil, pairing.ErrNotFound
	}
	return &t, nil
}

func (m *MemStore) FindTemplates(_ context.Context, ids []uuid.UUID) ([]model.Template, error) {
	out := []model.Template{}
	for _, id := range ids {
		if t, ok := m.st.templates[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemStore) ListTemplates(_ context.Context) ([]model.Template, error) {
	out := make([]model.Template, 0, len(m.st.templates))
	for _, t := range m.st.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *MemStore) WriteTemplate(_ context.Context, id uuid.UUID, changes map[string]any) error {
	t, ok := m.st.templates[id]
	if !ok {
		return pairing.ErrNotFound
	}
	for k, v := range changes {
		switch k {
		case "name":
			t.Name = v.(string)
		case "code":
			t.Code = v.(string)
		case "has_raw_products":
			t.HasRawProducts = v.(bool)
		case "active":
			t.Active = v.(bool)
		default:
			return fmt.Errorf("unknown template field %q", k)
		}
	}
	t.UpdatedAt = time.Now()
	m.st.templates[id] = t
	return nil
}

func (m *MemStore) CreateProduct(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := m.st.templates[p.TemplateID]; !ok {
		return fmt.Errorf("template %s: %w", p.TemplateID, pairing.ErrNotFound)
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.RawProductID, stored.MainProductID, stored.Template = nil, nil, nil
	m.st.products[p.ID] = stored
	m.st.order = append(m.st.order, p.ID)
	return nil
}

// withLinks returns a copy of p with its pairing references filled in.
func (m *MemStore) withLinks(p model.Product) model.Product {
	for _, l := range m.st.links {
		if l.main == p.ID {
			raw := l.raw
			p.RawProductID = &raw
		}
		if l.raw == p.ID {
			main := l.main
			p.MainProductID = &main
		}
	}
	return p
}

func (m *MemStore) FindProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.st.products[id]
	if !ok {
		return nil, pairing.ErrNotFound
	}
	p = m.withLinks(p)
	return &p, nil
}

func (m *MemStore) FindProducts(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := m.st.products[id]; ok {
			out = append(out, m.withLinks(p))
		}
	}
	return out, nil
}

func (m *MemStore) SearchProducts(_ context.Context, f pairing.ProductFilter) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range m.st.order {
		p, ok := m.st.products[id]
		if !ok {
			continue
		}
		if f.TemplateID != nil && p.TemplateID != *f.TemplateID {
			continue
		}
		if f.HasRawProducts != nil && m.st.templates[p.TemplateID].HasRawProducts != *f.HasRawProducts {
			continue
		}
		if f.IsRawProduct != nil && p.IsRawProduct != *f.IsRawProduct {
			continue
		}
		if f.Code != "" && p.Code != f.Code {
			continue
		}
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		out = append(out, m.withLinks(p))
	}
	return out, nil
}

func (m *MemStore) WriteProduct(_ context.Context, id uuid.UUID, changes map[string]any) error {
	p, ok := m.st.products[id]
	if !ok {
		return pairing.ErrNotFound
	}
	for k, v := range changes {
		switch k {
		case "suffix_code":
			p.SuffixCode = v.(string)
		case "code":
			p.Code = v.(string)
		case "is_raw_product":
			p.IsRawProduct = v.(bool)
		case "active":
			p.Active = v.(bool)
		default:
			return fmt.Errorf("unknown product field %q", k)
		}
	}
	p.UpdatedAt = time.Now()
	m.st.products[id] = p
	m.Writes[id]++
	return nil
}

func (m *MemStore) DeleteProducts(_ context.Context, ids []uuid.UUID) error {
	gone := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
		delete(m.st.products, id)
	}
	kept := m.st.links[:0]
	for _, l := range m.st.links {
		if !gone[l.main] && !gone[l.raw] {
			kept = append(kept, l)
		}
	}
	m.st.links = kept
	return nil
}

func (m *MemStore) Link(_ context.Context, mainID, rawID uuid.UUID) error {
	for _, l := range m.st.links {
		if l.main == mainID || l.raw == rawID {
			return ErrUniqueViolation
		}
	}
	m.st.links = append(m.st.links, link{main: mainID, raw: rawID})
	return nil
}

// ── Test helpers ─────────────────────────────────────────────────────────────

// ForceLink inserts a pairing row without any check, to build corrupt data.
func (m *MemStore) ForceLink(mainID, rawID uuid.UUID) {
	m.st.links = append(m.st.links, link{main: mainID, raw: rawID})
}

// Put stores p as is, bypassing the service.
func (m *MemStore) Put(p model.Product) {
	if _, ok := m.st.products[p.ID]; !ok {
		m.st.order = append(m.st.order, p.ID)
	}
	p.RawProductID, p.MainProductID = nil, nil
	m.st.products[p.ID] = p
}

// PutTemplate stores t as is, bypassing the service.
func (m *MemStore) PutTemplate(t model.Template) {
	m.st.templates[t.ID] = t
}

// Links returns the number of pairing rows.
func (m *MemStore) Links() int { return len(m.st.links) }
