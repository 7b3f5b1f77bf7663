package pairing

import (
	"context"
	"errors"
	"fmt"

	"rawvariant/internal/model"
	"rawvariant/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// batch is the state of one create/write/delete operation. Everything it
// touches is re-validated before the transaction commits.
type batch struct {
	tx        Store
	affected  []uuid.UUID
	seen      map[uuid.UUID]bool
	codes     []string
	templates map[uuid.UUID]*model.Template

	provisioned int
	rewritten   int
	cascaded    int
}

func newBatch(tx Store) *batch {
	return &batch{
		tx:        tx,
		seen:      make(map[uuid.UUID]bool),
		templates: make(map[uuid.UUID]*model.Template),
	}
}

// touch adds products to the validation set, keeping first-seen order.
func (b *batch) touch(ids ...uuid.UUID) {
	for _, id := range ids {
		if b.seen[id] {
			continue
		}
		b.seen[id] = true
		b.affected = append(b.affected, id)
	}
}

func (b *batch) codeTouched(codes ...string) {
	for _, c := range codes {
		if c != "" {
			b.codes = append(b.codes, c)
		}
	}
}

func (b *batch) template(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	if t, ok := b.templates[id]; ok {
		return t, nil
	}
	t, err := b.tx.FindTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	b.templates[id] = t
	return t, nil
}

func (b *batch) forgetTemplate(id uuid.UUID) { delete(b.templates, id) }

// run executes fn inside one store transaction, then runs the validation gate
// over every product the batch touched. Counters and cache invalidation are
// only published once the transaction committed.
func (s *Service) run(ctx context.Context, fn func(b *batch) error) error {
	var done *batch
	err := s.store.Transaction(ctx, func(tx Store) error {
		b := newBatch(tx)
		if err := fn(b); err != nil {
			return err
		}
		if err := s.validate(ctx, b); err != nil {
			return err
		}
		done = b
		return nil
	})
	if err != nil {
		if inv := Invariant(err); inv != "" {
			observability.ValidationRejections.WithLabelValues(inv).Inc()
			log.Warn().Str("invariant", inv).Err(err).Msg("pairing batch rejected")
		}
		return err
	}

	observability.CounterpartsProvisioned.Add(float64(done.provisioned))
	observability.CodesRewritten.Add(float64(done.rewritten))
	observability.CascadeDeletes.Add(float64(done.cascaded))
	if s.inv != nil && len(done.codes) > 0 {
		s.inv.Invalidate(ctx, done.codes...)
	}
	return nil
}

// validate is the gate: CheckProduct on every touched product that still
// exists, plus the no-orphan rule for raw-enabled templates.
func (s *Service) validate(ctx context.Context, b *batch) error {
	if len(b.affected) == 0 {
		return nil
	}
	products, err := b.tx.FindProducts(ctx, b.affected)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, id := range b.affected {
		p, ok := byID[id]
		if !ok {
			continue // deleted within the batch
		}
		tpl, err := b.template(ctx, p.TemplateID)
		if err != nil {
			return err
		}
		if err := CheckProduct(p, tpl.HasRawProducts); err != nil {
			return err
		}
		if tpl.HasRawProducts && p.Counterpart() == nil {
			return &MissingCounterpartError{ProductID: p.ID, Product: p.DisplayName()}
		}
	}
	return nil
}
