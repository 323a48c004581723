package model

// SendRequest represents request for POST /batch/send.
// Confirm is the secondary confirmation required when All is true.
type SendRequest struct {
	ToAddress string `json:"toAddress"`
	Amount    string `json:"amount"`
	All       bool   `json:"all"`
	Index     *int   `json:"index,omitempty"`
	Confirm   bool   `json:"confirm"`
}

// ProxyRequest represents request for POST /proxy. An empty Proxy clears the selection.
type ProxyRequest struct {
	Proxy string `json:"proxy"`
}

// ProxyResponse represents response for GET /proxy
type ProxyResponse struct {
	Proxies []string `json:"proxies"`
	Active  string   `json:"active"`
}
