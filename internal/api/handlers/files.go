package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/edi-processor/internal/api/middleware"
	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/jobs"
	"github.com/dvloznov/edi-processor/internal/logger"
	"github.com/dvloznov/edi-processor/internal/store"
)

// MaxUploadBytes bounds the in-memory part of a multipart upload.
const MaxUploadBytes = 32 << 20

// URLSigner issues time-limited download URLs for blob locations.
type URLSigner interface {
	SignedURL(ctx context.Context, location string, ttl time.Duration) (string, error)
}

// FilesHandler handles EDI file endpoints.
type FilesHandler struct {
	processor    Processor
	files        store.FileRepository
	transactions store.TransactionRepository
	publisher    jobs.Publisher
	signer       URLSigner
	signedTTL    time.Duration
	now          func() time.Time
}

// NewFilesHandler creates a new files handler. publisher may be nil, which
// disables asynchronous processing.
func NewFilesHandler(processor Processor, files store.FileRepository, transactions store.TransactionRepository, publisher jobs.Publisher, signer URLSigner, signedTTL time.Duration) *FilesHandler {
	return &FilesHandler{
		processor:    processor,
		files:        files,
		transactions: transactions,
		publisher:    publisher,
		signer:       signer,
		signedTTL:    signedTTL,
		now:          time.Now,
	}
}

type uploadResponse struct {
	FileID            string                   `json:"file_id"`
	FileName          string                   `json:"file_name"`
	FileStatus        domain.FileStatus        `json:"file_status"`
	ReceivedAt        time.Time                `json:"received_at"`
	TransactionID     string                   `json:"transaction_id,omitempty"`
	TransactionStatus domain.TransactionStatus `json:"transaction_status,omitempty"`
}

// Upload handles POST /api/files/upload
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil || header.Size == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	source := domain.SourceAPI
	if v := r.URL.Query().Get("source"); v != "" {
		if source, err = domain.ParseSource(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	log.Info().Str("file_name", header.Filename).Msg("Uploading EDI file")

	f, err := h.processor.Ingest(ctx, file, header.Filename, source, r.URL.Query().Get("account_id"))
	if err != nil {
		writeFailure(w, log, err, "Error uploading file")
		return
	}

	resp := uploadResponse{
		FileID:     f.ID,
		FileName:   f.FileName,
		FileStatus: f.Status,
		ReceivedAt: f.ReceivedAt,
	}
	txs, err := h.transactions.ListTransactions(ctx, store.TransactionFilter{FileID: f.ID, Limit: 1})
	if err != nil {
		log.Warn().Err(err).Str("file_id", f.ID).Msg("Could not load receipt transaction")
	} else if len(txs) > 0 {
		resp.TransactionID = txs[0].ID
		resp.TransactionStatus = txs[0].Status
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// List handles GET /api/files
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := pagination(query)
	h.list(w, r, store.FileFilter{
		Status:    domain.FileStatus(query.Get("status")),
		AccountID: query.Get("account_id"),
		Limit:     limit,
		Offset:    offset,
	})
}

// Pending handles GET /api/files/pending
func (h *FilesHandler) Pending(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r.URL.Query())
	h.list(w, r, store.FileFilter{Status: domain.FileStatusReceived, Limit: limit, Offset: offset})
}

func (h *FilesHandler) list(w http.ResponseWriter, r *http.Request, filter store.FileFilter) {
	files, err := h.files.ListFiles(r.Context(), filter)
	if err != nil {
		writeFailure(w, logger.FromContext(r.Context()), err, "Error retrieving EDI files")
		return
	}
	if files == nil {
		files = []*domain.File{}
	}
	middleware.WriteJSON(w, http.StatusOK, files)
}

type fileDetailResponse struct {
	File         *domain.File          `json:"file"`
	Transactions []*domain.Transaction `json:"transactions"`
}

// Get handles GET /api/files/{id}
func (h *FilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	f, err := h.files.GetFile(ctx, r.PathValue("id"))
	if err != nil {
		writeFailure(w, log, err, "Error retrieving EDI file")
		return
	}
	txs, err := h.transactions.ListTransactions(ctx, store.TransactionFilter{FileID: f.ID})
	if err != nil {
		writeFailure(w, log, err, "Error retrieving file transactions")
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, fileDetailResponse{File: f, Transactions: txs})
}

type validateResponse struct {
	FileID       string            `json:"file_id"`
	IsValid      bool              `json:"is_valid"`
	Status       domain.FileStatus `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Validate handles POST /api/files/{id}/validate
func (h *FilesHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, err := h.files.GetFile(ctx, r.PathValue("id"))
	if err != nil {
		writeFailure(w, logger.FromContext(ctx), err, "Error validating EDI file")
		return
	}

	valid := h.processor.ValidateStructure(ctx, f)
	middleware.WriteJSON(w, http.StatusOK, validateResponse{
		FileID:       f.ID,
		IsValid:      valid,
		Status:       f.Status,
		ErrorMessage: f.ErrorMessage,
	})
}

type processResponse struct {
	FileID            string                   `json:"file_id"`
	TransactionID     string                   `json:"transaction_id"`
	FileStatus        domain.FileStatus        `json:"file_status"`
	TransactionStatus domain.TransactionStatus `json:"transaction_status"`
}

// Process handles POST /api/files/{id}/process. With ?async=true the work is
// queued and the job is returned with 202.
func (h *FilesHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	f, err := h.files.GetFile(ctx, r.PathValue("id"))
	if err != nil {
		writeFailure(w, log, err, "Error processing EDI file")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		h.enqueue(w, r, f)
		return
	}

	tx, err := h.processor.Process(ctx, f)
	if errors.Is(err, domain.ErrValidationFailed) {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "File validation failed",
			"details": f.ErrorMessage,
		})
		return
	}
	if err != nil {
		writeFailure(w, log, err, "Error processing EDI file")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, processResponse{
		FileID:            f.ID,
		TransactionID:     tx.ID,
		FileStatus:        f.Status,
		TransactionStatus: tx.Status,
	})
}

func (h *FilesHandler) enqueue(w http.ResponseWriter, r *http.Request, f *domain.File) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Asynchronous processing is not enabled")
		return
	}

	log := logger.FromContext(r.Context())
	job := &jobs.ProcessFileJob{FileID: f.ID}
	if err := h.publisher.PublishProcessFile(r.Context(), job); err != nil {
		writeFailure(w, log, err, "Failed to enqueue processing job")
		return
	}

	log.Info().Str("job_id", job.JobID).Str("file_id", f.ID).Msg("Processing job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"file_id": f.ID,
		"status":  string(job.Status),
	})
}

// Transactions handles GET /api/files/{id}/transactions
func (h *FilesHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r.URL.Query())
	txs, err := h.transactions.ListTransactions(r.Context(), store.TransactionFilter{
		FileID: r.PathValue("id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeFailure(w, logger.FromContext(r.Context()), err, "Error retrieving file transactions")
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// DownloadURL handles GET /api/files/{id}/download-url
func (h *FilesHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	f, err := h.files.GetFile(ctx, r.PathValue("id"))
	if err != nil {
		writeFailure(w, log, err, "Error retrieving EDI file")
		return
	}

	url, err := h.signer.SignedURL(ctx, f.StorageLocation, h.signedTTL)
	if err != nil {
		writeFailure(w, log, err, "Failed to sign download URL")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"file_id":    f.ID,
		"url":        url,
		"expires_at": h.now().Add(h.signedTTL).UTC(),
	})
}
