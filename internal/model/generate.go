package model

// GenerateRequest represents request for POST /batch/generate
type GenerateRequest struct {
	Count int `json:"count"`
}

// BatchResponse represents response for any accepted batch start
type BatchResponse struct {
	ID       string `json:"id"`
	Workflow string `json:"workflow"`
	Message  string `json:"message"`
}

// ClaimRequest represents request for POST /batch/claim.
// Index is required when All is false.
type ClaimRequest struct {
	All   bool `json:"all"`
	Index *int `json:"index,omitempty"`
}

// CancelResponse represents response for POST /batch/cancel
type CancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}
