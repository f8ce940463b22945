package handlers

import (
	"fmt"
	"net/http"

	"github.com/dvloznov/edi-processor/internal/api/middleware"
	"github.com/dvloznov/edi-processor/internal/edi"
)

// TransactionTypesHandler serves the read-only transaction type registry.
type TransactionTypesHandler struct {
	registry *edi.Registry
}

func NewTransactionTypesHandler(registry *edi.Registry) *TransactionTypesHandler {
	if registry == nil {
		registry = edi.DefaultRegistry()
	}
	return &TransactionTypesHandler{registry: registry}
}

// All handles GET /api/transaction-types
func (h *TransactionTypesHandler) All(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.registry.All())
}

// X12Codes handles GET /api/transaction-types/x12
func (h *TransactionTypesHandler) X12Codes(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.registry.AllCodes())
}

// EdifactNames handles GET /api/transaction-types/edifact
func (h *TransactionTypesHandler) EdifactNames(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.registry.AllEdifactNames())
}

// Lookup handles GET /api/transaction-types/lookup/{code}
func (h *TransactionTypesHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	info, ok := h.registry.Lookup(code)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Transaction type '%s' not found", code))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, info)
}

type typeValidationResponse struct {
	Code         string `json:"code"`
	IsValid      bool   `json:"isValid"`
	DocumentName string `json:"documentName,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Validate handles GET /api/transaction-types/validate/{code}
func (h *TransactionTypesHandler) Validate(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	resp := typeValidationResponse{Code: code}
	if info, ok := h.registry.Lookup(code); ok {
		resp.IsValid = true
		resp.DocumentName = info.DocumentName
		resp.Description = info.Description
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// X12ToEdifact handles GET /api/transaction-types/map/x12-to-edifact/{code}
func (h *TransactionTypesHandler) X12ToEdifact(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"x12Code":     code,
		"edifactName": h.registry.EdifactFor(code),
	})
}

// EdifactToX12 handles GET /api/transaction-types/map/edifact-to-x12/{name}
func (h *TransactionTypesHandler) EdifactToX12(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"edifactName": name,
		"x12Code":     h.registry.X12For(name),
	})
}
