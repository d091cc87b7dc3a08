package dto

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithData creates an error response that still carries
// a partial result for the caller to inspect.
func NewErrorResponseWithData(code, message string, data interface{}) Response {
	resp := NewErrorResponse(code, message)
	resp.Data = data
	return resp
}

// SyncRequest selects the environment for a catalog sync pass.
type SyncRequest struct {
	Context string `json:"context" binding:"required,oneof=virtual regular"`
}

// EnvironmentURI binds the environment path parameter.
type EnvironmentURI struct {
	Environment string `uri:"env" binding:"required,oneof=virtual regular"`
}

// ProductURI binds environment and product ID path parameters.
type ProductURI struct {
	Environment string `uri:"env" binding:"required,oneof=virtual regular"`
	ID          string `uri:"id" binding:"required"`
}

// RelationURI binds environment and relation ID path parameters.
type RelationURI struct {
	Environment string `uri:"env" binding:"required,oneof=virtual regular"`
	ID          uint   `uri:"id" binding:"required"`
}

// CategoryRelationRequest is the create/update payload for a category
// relation row.
type CategoryRelationRequest struct {
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory"`
	IsActive    *bool  `json:"is_active"`
}

// CountData wraps a bare count value.
type CountData struct {
	Count int64 `json:"count"`
}
