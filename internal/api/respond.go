package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/bookstore/recordstore/internal/snapshot"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return http.StatusNotFound
	case merchant.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, merchant.ErrInvalidIdentifier),
		errors.Is(err, merchant.ErrInvalidQuantity),
		errors.Is(err, merchant.ErrNegativePrice):
		return http.StatusBadRequest
	case errors.Is(err, merchant.ErrItemMismatch),
		errors.Is(err, merchant.ErrPriceNotSet),
		merchant.IsStockError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := merchant.Code(err)
	if errors.Is(err, snapshot.ErrNotFound) {
		code = "snapshot_not_found"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("Operation failed", zap.Error(err))
	}
	writeError(w, status, code, err.Error())
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "validation_failed",
			Message: "request validation failed",
			Fields:  validationFields(verrs),
		}})
		return false
	}
	return true
}

func validationFields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
