package handler

import "github.com/inkwell/blog/internal/core/domain"

// messageResponse carries confirmations and non-validation errors.
type messageResponse struct {
	Message string `json:"message"`
}

// validationErrorResponse documents the 400 envelope rendered by the error
// handler.
type validationErrorResponse struct {
	Success bool                `json:"success"`
	Errors  []domain.FieldError `json:"errors"`
}
