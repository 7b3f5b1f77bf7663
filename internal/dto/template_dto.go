package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateVariantRequest struct {
	SuffixCode    string  `json:"suffix_code"     validate:"required,max=64"`
	IsRawProduct  bool    `json:"is_raw_product"`
	RawProductID  *string `json:"raw_product_id"  validate:"omitempty,uuid"`
	MainProductID *string `json:"main_product_id" validate:"omitempty,uuid"`
}

type CreateTemplateRequest struct {
	Name           string                 `json:"name"             validate:"required,min=1,max=120"`
	Code           string                 `json:"code"             validate:"max=64"`
	HasRawProducts bool                   `json:"has_raw_products"`
	Variants       []CreateVariantRequest `json:"variants"         validate:"max=500,dive"`
}

// UpdateTemplateRequest is a partial update; omitted fields are left alone.
type UpdateTemplateRequest struct {
	Name           *string `json:"name"             validate:"omitempty,min=1,max=120"`
	Code           *string `json:"code"             validate:"omitempty,max=64"`
	HasRawProducts *bool   `json:"has_raw_products"`
	Active         *bool   `json:"active"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TemplateResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	HasRawProducts bool   `json:"has_raw_products"`
	Active         bool   `json:"active"`
}

type CreateTemplateResponse struct {
	Template TemplateResponse  `json:"template"`
	Variants []ProductResponse `json:"variants"`
}

type RecomputeCodesResponse struct {
	Rewritten int `json:"rewritten"`
}
