package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	TemplateID    string  `json:"template_id"     validate:"required,uuid"`
	SuffixCode    string  `json:"suffix_code"     validate:"required,max=64"`
	IsRawProduct  bool    `json:"is_raw_product"`
	RawProductID  *string `json:"raw_product_id"  validate:"omitempty,uuid"`
	MainProductID *string `json:"main_product_id" validate:"omitempty,uuid"`
}

// CreateProductsRequest creates all products in one transaction.
type CreateProductsRequest struct {
	Products []CreateProductRequest `json:"products" validate:"required,min=1,max=500,dive"`
}

// UpdateProductRequest is a partial update; omitted fields are left alone.
// Pairings cannot be re-targeted: delete and recreate instead.
type UpdateProductRequest struct {
	SuffixCode   *string `json:"suffix_code"    validate:"omitempty,max=64"`
	IsRawProduct *bool   `json:"is_raw_product"`
	Active       *bool   `json:"active"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductFilter struct {
	TemplateID     string `form:"template_id"      validate:"omitempty,uuid"`
	HasRawProducts *bool  `form:"has_raw_products"`
	IsRawProduct   *bool  `form:"is_raw_product"`
	Code           string `form:"code"             validate:"max=64"`
	Active         *bool  `form:"active"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID            string  `json:"id"`
	TemplateID    string  `json:"template_id"`
	SuffixCode    string  `json:"suffix_code"`
	Code          string  `json:"code"`
	IsRawProduct  bool    `json:"is_raw_product"`
	Active        bool    `json:"active"`
	RawProductID  *string `json:"raw_product_id"`
	MainProductID *string `json:"main_product_id"`
}

type DeleteProductsResponse struct {
	Deleted []string `json:"deleted"`
}
