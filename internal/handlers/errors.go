package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"produtos-api/internal/models"
	"produtos-api/internal/pkg/clock"
)

// ErrorResponse es el cuerpo de todas las respuestas de error
type ErrorResponse struct {
	StatusCode int               `json:"statusCode"`
	Timestamp  string            `json:"timestamp"`
	Path       string            `json:"path"`
	Method     string            `json:"method"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

// ErrorHandler convierte el último error registrado con c.Error en la respuesta JSON
func ErrorHandler(clk clock.Clock) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status, message, details := classify(last.Err)
		if status >= http.StatusInternalServerError {
			log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, last.Err)
		} else {
			log.Printf("⚠️ %s %s -> %d: %v", c.Request.Method, c.Request.URL.Path, status, last.Err)
		}

		c.JSON(status, ErrorResponse{
			StatusCode: status,
			Timestamp:  clk.Now().Format(time.RFC3339),
			Path:       c.Request.URL.Path,
			Method:     c.Request.Method,
			Message:    message,
			Details:    details,
		})
	}
}

func classify(err error) (int, string, map[string]string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "Validation failed", validationDetails(err)
	case errors.Is(err, models.ErrConflict):
		// el contrato HTTP reporta el duplicado como 400
		return http.StatusBadRequest, err.Error(), nil
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error(), nil
	default:
		return http.StatusInternalServerError, "Internal server error", nil
	}
}

// validationDetails junta los campos inválidos de errores de binding y de dominio
func validationDetails(err error) map[string]string {
	details := map[string]string{}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for field, msg := range FormatValidationErrors(fieldErrs) {
			details[field] = msg
		}
	}
	collectValidationErrors(err, details)

	if len(details) == 0 {
		// error de decodificación (JSON mal formado, campo desconocido, número inválido)
		details["body"] = err.Error()
	}
	return details
}

func collectValidationErrors(err error, into map[string]string) {
	switch e := err.(type) {
	case *models.ValidationError:
		into[e.Field] = e.Message
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectValidationErrors(inner, into)
		}
	case interface{ Unwrap() error }:
		collectValidationErrors(e.Unwrap(), into)
	}
}

// bindError marca un error de binding como error de validación
func bindError(err error) error {
	return fmt.Errorf("%w: %w", models.ErrValidation, err)
}
