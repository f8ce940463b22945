package handlers

import (
	"net/http"

	"github.com/dvloznov/edi-processor/internal/api/middleware"
	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/logger"
	"github.com/dvloznov/edi-processor/internal/store"
)

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	processor    Processor
	transactions store.TransactionRepository
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(processor Processor, transactions store.TransactionRepository) *TransactionsHandler {
	return &TransactionsHandler{processor: processor, transactions: transactions}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := pagination(query)
	h.list(w, r, store.TransactionFilter{
		Status:    domain.TransactionStatus(query.Get("status")),
		AccountID: query.Get("account_id"),
		PartnerID: query.Get("partner_id"),
		Limit:     limit,
		Offset:    offset,
	})
}

// ByPartner handles GET /api/transactions/by-partner/{partnerId}
func (h *TransactionsHandler) ByPartner(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r.URL.Query())
	h.list(w, r, store.TransactionFilter{PartnerID: r.PathValue("partnerId"), Limit: limit, Offset: offset})
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request, filter store.TransactionFilter) {
	txs, err := h.transactions.ListTransactions(r.Context(), filter)
	if err != nil {
		writeFailure(w, logger.FromContext(r.Context()), err, "Error retrieving transactions")
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// Get handles GET /api/transactions/{id}
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.transactions.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, logger.FromContext(r.Context()), err, "Error retrieving transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

type acknowledgeResponse struct {
	TransactionID string                   `json:"transaction_id"`
	Success       bool                     `json:"success"`
	Status        domain.TransactionStatus `json:"status"`
}

// Acknowledge handles POST /api/transactions/{id}/acknowledge
func (h *TransactionsHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tx, err := h.transactions.GetTransaction(ctx, r.PathValue("id"))
	if err != nil {
		writeFailure(w, logger.FromContext(ctx), err, "Error sending acknowledgment")
		return
	}

	ok := h.processor.Acknowledge(ctx, tx)
	middleware.WriteJSON(w, http.StatusOK, acknowledgeResponse{
		TransactionID: tx.ID,
		Success:       ok,
		Status:        tx.Status,
	})
}
