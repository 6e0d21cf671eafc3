package requests

// CreateConversationRequest is the body of POST /api/v1/conversations.
// Title is a pointer so that an explicit empty string passes while a missing field fails binding.
type CreateConversationRequest struct {
	Title *string `json:"title" binding:"required" example:"Trip planning"`
}

// SendMessageRequest is the body of POST /api/v1/conversations/{id}/messages.
type SendMessageRequest struct {
	Content *string `json:"content" binding:"required" example:"Where should I go in March?"`
}

// PageQuery binds ?limit&offset. Zero limit falls back to the default page size.
type PageQuery struct {
	Limit  int `form:"limit" binding:"min=0"`
	Offset int `form:"offset" binding:"min=0"`
}
