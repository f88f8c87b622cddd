package rest

// ErrorResponse is the JSON body returned for any API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
