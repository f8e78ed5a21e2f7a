package models

// MessageResponse is the body for delete confirmations and every error
// response: {"message": "..."}.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewMessageResponse creates a message response
func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Message: message}
}
