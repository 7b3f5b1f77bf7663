package dto

type FindingResponse struct {
	ProductID  string `json:"product_id"`
	Code       string `json:"code"`
	TemplateID string `json:"template_id"`
	Invariant  string `json:"invariant"`
	Detail     string `json:"detail"`
}

type AuditResponse struct {
	Total    int               `json:"total"`
	Findings []FindingResponse `json:"findings"`
}
