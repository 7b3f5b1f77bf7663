package pairing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DeleteProducts deletes the variants and their pairing rows in one
// transaction and returns the ids actually deleted.
//
// A main variant whose raw counterpart is not part of the batch is refused
// with DeleteForbiddenError unless cascade is set, in which case the raw
// counterpart is deleted too. A raw variant whose main counterpart survives
// is always refused.
func (s *Service) DeleteProducts(ctx context.Context, ids []uuid.UUID, cascade bool) ([]uuid.UUID, error) {
	var deleted []uuid.UUID
	err := s.run(ctx, func(b *batch) error {
		ids = dedupe(ids)
		if len(ids) == 0 {
			return nil
		}
		products, err := b.tx.FindProducts(ctx, ids)
		if err != nil {
			return err
		}
		if len(products) != len(ids) {
			return fmt.Errorf("%d of %d variants: %w", len(ids)-len(products), len(ids), ErrNotFound)
		}

		inBatch := make(map[uuid.UUID]bool, len(products))
		for _, p := range products {
			inBatch[p.ID] = true
		}

		// Mains first: cascading may pull raw counterparts into the batch.
		for i := 0; i < len(products); i++ {
			p := products[i]
			if p.IsRawProduct || p.RawProductID == nil || inBatch[*p.RawProductID] {
				continue
			}
			raw, err := b.tx.FindProduct(ctx, *p.RawProductID)
			if err != nil {
				return err
			}
			if !cascade {
				return &DeleteForbiddenError{
					ProductID: p.ID, Product: p.DisplayName(),
					CounterpartID: raw.ID, Counterpart: raw.DisplayName(),
				}
			}
			inBatch[raw.ID] = true
			products = append(products, *raw)
			b.cascaded++
			log.Info().
				Str("product_id", p.ID.String()).
				Str("raw_product_id", raw.ID.String()).
				Msg("raw counterpart deleted with its main variant")
		}

		for _, p := range products {
			if !p.IsRawProduct || p.MainProductID == nil || inBatch[*p.MainProductID] {
				continue
			}
			main, err := b.tx.FindProduct(ctx, *p.MainProductID)
			if err != nil {
				return err
			}
			return &DeleteForbiddenError{
				ProductID: p.ID, Product: p.DisplayName(),
				CounterpartID: main.ID, Counterpart: main.DisplayName(),
				Raw: true,
			}
		}

		deleted = make([]uuid.UUID, 0, len(products))
		for _, p := range products {
			deleted = append(deleted, p.ID)
			b.codeTouched(p.Code)
		}
		return b.tx.DeleteProducts(ctx, deleted)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
