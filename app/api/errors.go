package api

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func ErrorHandler(c *fiber.Ctx, err error) error {
	if apiError, ok := err.(Error); ok {
		return c.Status(apiError.Code).JSON(apiError)
	}
	if valError, ok := err.(ValidationError); ok {
		return c.Status(valError.Status).JSON(valError)
	}

	code := fiber.StatusInternalServerError
	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
	}
	apiError := NewError(code, err.Error())
	slog.Default().Error("request failed", "code", apiError.Code, "error", apiError.Message)
	return c.Status(apiError.Code).JSON(apiError)
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrUnsupportedFileType(filename string) Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: fmt.Sprintf("file %s is not a PDF or TXT", filename),
	}
}

func ErrEmptyContent() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "no text could be extracted from the file",
	}
}

func ErrAmbiguousTopic(options []string) Error {
	msg := "topic is ambiguous, please be more specific"
	if len(options) > 0 {
		msg = fmt.Sprintf("%s. Options: %s", msg, strings.Join(options, ", "))
	}
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: msg,
	}
}

func ErrNoDocumentsLoaded() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "no documents loaded, upload a document or load a Wikipedia page first",
	}
}

func ErrNotFound[T any](arg T, resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}

func ErrUpstream(err error) Error {
	return Error{
		Code:    fiber.StatusBadGateway,
		Message: fmt.Sprintf("upstream service error: %v", err),
	}
}

func ErrPersistence(err error) Error {
	return Error{
		Code:    fiber.StatusInternalServerError,
		Message: fmt.Sprintf("persistence error: %v", err),
	}
}
