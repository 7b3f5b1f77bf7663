package handler

import (
	"rawvariant/internal/dto"
	"rawvariant/internal/model"
	"rawvariant/internal/pairing"

	"github.com/google/uuid"
)

func optionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	// already validated by the uuid tag
	id := uuid.MustParse(*s)
	return &id
}

func optionalString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toNewProduct(templateID uuid.UUID, v dto.CreateVariantRequest) pairing.NewProduct {
	return pairing.NewProduct{
		TemplateID:    templateID,
		SuffixCode:    v.SuffixCode,
		IsRawProduct:  v.IsRawProduct,
		RawProductID:  optionalUUID(v.RawProductID),
		MainProductID: optionalUUID(v.MainProductID),
	}
}

func toTemplateResponse(t *model.Template) dto.TemplateResponse {
	return dto.TemplateResponse{
		ID:             t.ID.String(),
		Name:           t.Name,
		Code:           t.Code,
		HasRawProducts: t.HasRawProducts,
		Active:         t.Active,
	}
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID.String(),
		TemplateID:    p.TemplateID.String(),
		SuffixCode:    p.SuffixCode,
		Code:          p.Code,
		IsRawProduct:  p.IsRawProduct,
		Active:        p.Active,
		RawProductID:  optionalString(p.RawProductID),
		MainProductID: optionalString(p.MainProductID),
	}
}

func toProductResponses(list []model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, len(list))
	for i := range list {
		out[i] = toProductResponse(&list[i])
	}
	return out
}
