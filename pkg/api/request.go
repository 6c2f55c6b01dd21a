package api

// CreateCaseRequest is the body of POST /v1/cases. Input is the raw
// customer payload the pipeline run starts from.
type CreateCaseRequest struct {
	Input map[string]any `json:"input"`
}

// Validate checks the request for structural problems.
func (r *CreateCaseRequest) Validate() *APIError {
	if r.Input == nil {
		return NewInvalidRequestError("input", "input payload is required")
	}
	return nil
}
