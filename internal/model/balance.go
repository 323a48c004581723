package model

// BatchStatus represents response for GET /batch/status
type BatchStatus struct {
	State    string  `json:"state"`
	ID       string  `json:"id,omitempty"`
	Workflow string  `json:"workflow,omitempty"`
	Last     *Report `json:"last,omitempty"`
}

// Report is the final tally of one batch workflow
type Report struct {
	ID        string `json:"id"`
	Workflow  string `json:"workflow"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Cancelled bool   `json:"cancelled"`
	Err       error  `json:"-"`
	Error     string `json:"error,omitempty"`
}
