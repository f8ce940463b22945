package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/edi-processor/internal/api/middleware"
	"github.com/dvloznov/edi-processor/internal/domain"
)

// Processor is the subset of the pipeline service used by the handlers.
type Processor interface {
	Ingest(ctx context.Context, content io.ReadSeeker, fileName string, source domain.Source, accountID string) (*domain.File, error)
	ValidateStructure(ctx context.Context, f *domain.File) bool
	Process(ctx context.Context, f *domain.File) (*domain.Transaction, error)
	Acknowledge(ctx context.Context, tx *domain.Transaction) bool
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure logs err and writes the mapped status. Server errors get a generic body.
func writeFailure(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	status := StatusFor(err)
	switch status {
	case http.StatusNotFound:
		middleware.WriteError(w, status, "Not found")
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, status, "Internal server error")
	default:
		middleware.WriteError(w, status, err.Error())
	}
}

// pagination reads limit and offset, ignoring malformed values.
func pagination(query url.Values) (limit, offset int) {
	if v := query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := query.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
