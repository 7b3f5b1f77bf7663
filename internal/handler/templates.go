package handler

import (
	"context"
	"net/http"

	"rawvariant/internal/dto"
	"rawvariant/internal/model"
	"rawvariant/internal/pairing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TemplatesHandler struct{ svc *pairing.Service }

func NewTemplatesHandler(svc *pairing.Service) *TemplatesHandler {
	return &TemplatesHandler{svc: svc}
}

// Create godoc
// @Summary Create a template with its first variants
// @Description Raw-enabled templates get the missing raw or main counterpart of every variant.
// @Tags templates
// @Accept json
// @Produce json
// @Param body body dto.CreateTemplateRequest true "Template"
// @Success 201 {object} dto.CreateTemplateResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/templates [post]
func (h *TemplatesHandler) Create(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	in := pairing.NewTemplate{
		Name:           req.Name,
		Code:           req.Code,
		HasRawProducts: req.HasRawProducts,
	}
	for _, v := range req.Variants {
		in.Variants = append(in.Variants, toNewProduct(uuid.Nil, v))
	}

	tpl, variants, err := h.svc.CreateTemplate(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateTemplateResponse{
		Template: toTemplateResponse(tpl),
		Variants: toProductResponses(variants),
	})
}

// Update godoc
// @Summary Update a template
// @Description Enabling has_raw_products pairs every existing variant; disabling it is rejected while pairings exist.
// @Tags templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param body body dto.UpdateTemplateRequest true "Changes"
// @Success 200 {object} dto.TemplateResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/templates/{id} [patch]
func (h *TemplatesHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.UpdateTemplateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tpl, err := h.svc.UpdateTemplate(c.Request.Context(), id, pairing.TemplateChanges{
		Name:           req.Name,
		Code:           req.Code,
		HasRawProducts: req.HasRawProducts,
		Active:         req.Active,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(tpl))
}

// Get godoc
// @Summary Get a template
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} dto.TemplateResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/templates/{id} [get]
func (h *TemplatesHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	tpl, err := h.svc.GetTemplate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateResponse(tpl))
}

// MainProducts godoc
// @Summary List the main variants of a template
// @Description Empty when the template has no raw variants.
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/templates/{id}/main-products [get]
func (h *TemplatesHandler) MainProducts(c *gin.Context) {
	h.byRole(c, h.svc.MainProducts)
}

// RawProducts godoc
// @Summary List the raw variants of a template
// @Description Empty when the template has no raw variants.
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/templates/{id}/raw-products [get]
func (h *TemplatesHandler) RawProducts(c *gin.Context) {
	h.byRole(c, h.svc.RawProducts)
}

func (h *TemplatesHandler) byRole(c *gin.Context, list func(ctx context.Context, id uuid.UUID) ([]model.Product, error)) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	products, err := list(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponses(products))
}

// RecomputeCodes godoc
// @Summary Re-derive the codes of every variant of a template
// @Description Needed after the prefix configuration changed. Only differing codes are written.
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} dto.RecomputeCodesResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/templates/{id}/recompute-codes [post]
func (h *TemplatesHandler) RecomputeCodes(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	n, err := h.svc.RecomputeCodes(c.Request.Context(), &id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RecomputeCodesResponse{Rewritten: n})
}
