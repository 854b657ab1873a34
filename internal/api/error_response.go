package api

// swagger:model api.ErrorResponse
type ErrorResponse struct {
	Message string              `json:"message" example:"invalid request"`
	Fields  map[string][]string `json:"fields,omitempty"`
}
