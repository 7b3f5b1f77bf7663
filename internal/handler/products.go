package handler

import (
	"net/http"
	"strconv"
	"strings"

	"rawvariant/internal/apierror"
	"rawvariant/internal/cache"
	"rawvariant/internal/dto"
	"rawvariant/internal/pairing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductsHandler struct {
	svc   *pairing.Service
	codes *cache.CodeCache
}

// NewProductsHandler wires the product endpoints. codes may be nil.
func NewProductsHandler(svc *pairing.Service, codes *cache.CodeCache) *ProductsHandler {
	return &ProductsHandler{svc: svc, codes: codes}
}

// Create godoc
// @Summary Create variants in one batch
// @Description Variants of raw-enabled templates get their counterpart cloned unless one is supplied. Any rule violation rolls back the whole batch.
// @Tags products
// @Accept json
// @Produce json
// @Param body body dto.CreateProductsRequest true "Variants"
// @Success 201 {array} dto.ProductResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	inputs := make([]pairing.NewProduct, len(req.Products))
	for i, p := range req.Products {
		inputs[i] = toNewProduct(uuid.MustParse(p.TemplateID), dto.CreateVariantRequest{
			SuffixCode:    p.SuffixCode,
			IsRawProduct:  p.IsRawProduct,
			RawProductID:  p.RawProductID,
			MainProductID: p.MainProductID,
		})
	}

	products, err := h.svc.CreateProducts(c.Request.Context(), inputs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponses(products))
}

// List godoc
// @Summary Search variants
// @Tags products
// @Produce json
// @Param template_id query string false "Template ID"
// @Param has_raw_products query bool false "Template flag"
// @Param is_raw_product query bool false "Role"
// @Param code query string false "Exact code"
// @Param active query bool false "Active"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if !validateStruct(c, &filter) {
		return
	}
	f := pairing.ProductFilter{
		HasRawProducts: filter.HasRawProducts,
		IsRawProduct:   filter.IsRawProduct,
		Code:           filter.Code,
		Active:         filter.Active,
	}
	if filter.TemplateID != "" {
		id := uuid.MustParse(filter.TemplateID)
		f.TemplateID = &id
	}

	products, err := h.svc.SearchProducts(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponses(products))
}

// Get godoc
// @Summary Get a variant
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

// GetByCode godoc
// @Summary Look a variant up by its derived code
// @Description Served from Redis when cached. Entries are dropped whenever a batch touches the code.
// @Tags products
// @Produce json
// @Param code path string true "Derived code"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/code/{code} [get]
func (h *ProductsHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()

	var resp dto.ProductResponse
	if h.codes.Get(ctx, code, &resp) {
		c.JSON(http.StatusOK, resp)
		return
	}

	p, err := h.svc.FindByCode(ctx, code)
	if err != nil {
		writeError(c, err)
		return
	}
	resp = toProductResponse(p)
	h.codes.Set(ctx, code, resp)
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Update a variant
// @Description Changing the role of a paired variant is rejected; codes are re-derived when the suffix or role changes.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param body body dto.UpdateProductRequest true "Changes"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/products/{id} [patch]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), id, pairing.ProductChanges{
		SuffixCode:   req.SuffixCode,
		IsRawProduct: req.IsRawProduct,
		Active:       req.Active,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

// Delete godoc
// @Summary Delete variants
// @Description A main variant whose raw counterpart is not in the batch needs cascade=true. A raw variant can only go together with its main variant.
// @Tags products
// @Produce json
// @Param ids query string true "Comma separated product IDs"
// @Param cascade query bool false "Also delete raw counterparts"
// @Success 200 {object} dto.DeleteProductsResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/products [delete]
func (h *ProductsHandler) Delete(c *gin.Context) {
	var ids []uuid.UUID
	for _, raw := range c.QueryArray("ids") {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := uuid.Parse(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, apierror.New("invalid id: "+s))
				return
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ids is required"))
		return
	}
	cascade := false
	if v := c.Query("cascade"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("cascade must be a boolean"))
			return
		}
		cascade = b
	}

	deleted, err := h.svc.DeleteProducts(c.Request.Context(), ids, cascade)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.DeleteProductsResponse{Deleted: make([]string, len(deleted))}
	for i, id := range deleted {
		resp.Deleted[i] = id.String()
	}
	c.JSON(http.StatusOK, resp)
}
