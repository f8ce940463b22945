// Package api exposes the EDI service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/edi-processor/internal/api/handlers"
	"github.com/dvloznov/edi-processor/internal/api/middleware"
	"github.com/dvloznov/edi-processor/internal/edi"
	"github.com/dvloznov/edi-processor/internal/jobs"
	"github.com/dvloznov/edi-processor/internal/store"
)

// Deps are the collaborators the routes need. Publisher may be nil.
type Deps struct {
	Processor    handlers.Processor
	Files        store.FileRepository
	Transactions store.TransactionRepository
	Jobs         jobs.JobStore
	Publisher    jobs.Publisher
	Signer       handlers.URLSigner
	SignedURLTTL time.Duration
	Registry     *edi.Registry
	Log          zerolog.Logger

	// APIKey, when set, is required on every route except /health.
	APIKey string
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(d Deps) http.Handler {
	files := handlers.NewFilesHandler(d.Processor, d.Files, d.Transactions, d.Publisher, d.Signer, d.SignedURLTTL)
	txs := handlers.NewTransactionsHandler(d.Processor, d.Transactions)
	types := handlers.NewTransactionTypesHandler(d.Registry)
	jobsHandler := handlers.NewJobsHandler(d.Jobs)

	mux := http.NewServeMux()

	// Files endpoints
	mux.HandleFunc("POST /api/files/upload", files.Upload)
	mux.HandleFunc("GET /api/files", files.List)
	mux.HandleFunc("GET /api/files/pending", files.Pending)
	mux.HandleFunc("GET /api/files/{id}", files.Get)
	mux.HandleFunc("POST /api/files/{id}/validate", files.Validate)
	mux.HandleFunc("POST /api/files/{id}/process", files.Process)
	mux.HandleFunc("GET /api/files/{id}/transactions", files.Transactions)
	mux.HandleFunc("GET /api/files/{id}/download-url", files.DownloadURL)

	// Transactions endpoints
	mux.HandleFunc("GET /api/transactions", txs.List)
	mux.HandleFunc("GET /api/transactions/{id}", txs.Get)
	mux.HandleFunc("POST /api/transactions/{id}/acknowledge", txs.Acknowledge)
	mux.HandleFunc("GET /api/transactions/by-partner/{partnerId}", txs.ByPartner)

	// Transaction type endpoints
	mux.HandleFunc("GET /api/transaction-types", types.All)
	mux.HandleFunc("GET /api/transaction-types/x12", types.X12Codes)
	mux.HandleFunc("GET /api/transaction-types/edifact", types.EdifactNames)
	mux.HandleFunc("GET /api/transaction-types/lookup/{code}", types.Lookup)
	mux.HandleFunc("GET /api/transaction-types/validate/{code}", types.Validate)
	mux.HandleFunc("GET /api/transaction-types/map/x12-to-edifact/{code}", types.X12ToEdifact)
	mux.HandleFunc("GET /api/transaction-types/map/edifact-to-x12/{name}", types.EdifactToX12)

	// Jobs endpoints
	if d.Jobs != nil {
		mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
		mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Chain(d.Log, d.APIKey, mux)
}
