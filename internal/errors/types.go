package errors

// standardized error response body
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "unauthorized", "not_found")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
}

// category and client-safe message for an error
type ErrorInfo struct {
	category  string
	sanitized string
}
