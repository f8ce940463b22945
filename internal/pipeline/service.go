package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/edi"
	"github.com/dvloznov/edi-processor/internal/logger"
	"github.com/dvloznov/edi-processor/internal/store"
)

// Service drives files and their transactions through ingestion, validation,
// parsing and acknowledgment. It holds no locks; concurrent calls for the same
// record rely on the record store.
type Service struct {
	blobs        BlobStore
	files        FileStore
	transactions TransactionStore

	registry   *edi.Registry
	classifier *edi.Classifier
	validator  *edi.Validator
	acks       *edi.AckGenerator
	now        func() time.Time

	ingest *Pipeline
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for timestamps and acknowledgment tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRegistry replaces the default transaction-type registry.
func WithRegistry(r *edi.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// NewService wires a Service over the given stores.
func NewService(blobs BlobStore, files FileStore, transactions TransactionStore, opts ...Option) *Service {
	s := &Service{
		blobs:        blobs,
		files:        files,
		transactions: transactions,
		registry:     edi.DefaultRegistry(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.classifier = edi.NewClassifier(s.registry)
	s.validator = edi.NewValidator(s.registry)
	s.acks = edi.NewAckGenerator(s.registry).WithClock(s.now)
	s.ingest = NewPipeline(
		&HashContentStep{},
		&StoreBlobStep{Blobs: s.blobs},
		&ClassifyStep{Classifier: s.classifier},
		&CreateFileStep{Files: s.files, Now: s.now},
		&CreateTransactionStep{Transactions: s.transactions, Registry: s.registry, Now: s.now},
	)
	return s
}

// Ingest stores content, records a File with status Received and creates its
// Transaction. Content is read from the start twice, once for the hash and once
// for the upload.
func (s *Service) Ingest(ctx context.Context, content io.ReadSeeker, fileName string, source domain.Source, accountID string) (*domain.File, error) {
	log := logger.FromContext(ctx).With().Str("file_name", fileName).Str("source", string(source)).Logger()
	log.Info().Msg("Ingesting EDI file")

	state := &IngestState{
		Content:   content,
		FileName:  fileName,
		Source:    source,
		AccountID: accountID,
	}
	if err := s.ingest.Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Failed to ingest EDI file")
		switch {
		case state.File != nil:
			// The file record keeps its blob so the failure can be inspected.
			state.File.MarkError(fmt.Sprintf("Ingestion error: %v", err))
			if uerr := s.files.UpdateFile(ctx, state.File); uerr != nil {
				log.Error().Err(uerr).Str("file_id", state.File.ID).Msg("Failed to record ingestion error")
			}
		case state.StorageLocation != "":
			if _, derr := s.blobs.Delete(ctx, state.StorageLocation); derr != nil {
				log.Error().Err(derr).Str("storage_location", state.StorageLocation).Msg("Failed to remove orphaned blob")
			}
		}
		return nil, fmt.Errorf("Ingest: %w", err)
	}

	log.Info().
		Str("file_id", state.File.ID).
		Str("transaction_id", state.Transaction.ID).
		Str("file_type", string(state.File.Dialect)).
		Str("transaction_type", state.File.TransactionType).
		Msg("EDI file ingested")
	return state.File, nil
}

// IngestBytes is Ingest over an in-memory document.
func (s *Service) IngestBytes(ctx context.Context, data []byte, fileName string, source domain.Source, accountID string) (*domain.File, error) {
	return s.Ingest(ctx, bytes.NewReader(data), fileName, source, accountID)
}

// ValidateStructure checks the stored bytes of f and records the verdict on f:
// Validated, or Error with the joined messages. Failures to read or persist are
// logged and reported as false.
func (s *Service) ValidateStructure(ctx context.Context, f *domain.File) bool {
	valid, _ := s.validateStructure(ctx, f)
	return valid
}

// validateStructure is ValidateStructure that also returns the storage error, if any.
func (s *Service) validateStructure(ctx context.Context, f *domain.File) (bool, error) {
	log := logger.FromContext(ctx).With().Str("file_id", f.ID).Logger()
	log.Info().Msg("Validating EDI file")

	res, err := s.validate(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("Error validating EDI file")
		f.MarkError(fmt.Sprintf("Validation error: %v", err))
		if uerr := s.files.UpdateFile(ctx, f); uerr != nil {
			log.Error().Err(uerr).Msg("Failed to record validation error")
		}
		return false, err
	}

	log.Info().Bool("valid", res.Valid).Strs("errors", res.Errors).Msg("EDI file validation completed")
	return res.Valid, nil
}

func (s *Service) validate(ctx context.Context, f *domain.File) (edi.Result, error) {
	data, err := s.blobs.Get(ctx, f.StorageLocation)
	if err != nil {
		return edi.Result{}, fmt.Errorf("downloading %s: %w: %w", f.StorageLocation, domain.ErrStorage, err)
	}

	res := s.validator.Validate(f.Dialect, string(data))
	if res.Valid {
		f.Status = domain.FileStatusValidated
		f.ErrorMessage = ""
	} else {
		f.MarkError(res.Message())
	}

	if err := s.files.UpdateFile(ctx, f); err != nil {
		return edi.Result{}, fmt.Errorf("updating file: %w: %w", domain.ErrStorage, err)
	}
	return res, nil
}

// Parse builds the structured payload of f into its Transaction and moves the
// Transaction to Parsed and f to Processed. On failure f is marked Error and the
// error is returned.
func (s *Service) Parse(ctx context.Context, f *domain.File) (*domain.Transaction, error) {
	log := logger.FromContext(ctx).With().Str("file_id", f.ID).Logger()
	log.Info().Msg("Parsing transaction from EDI file")

	tx, err := s.parse(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing transaction from EDI file")
		f.MarkError(fmt.Sprintf("Parsing error: %v", err))
		if uerr := s.files.UpdateFile(ctx, f); uerr != nil {
			log.Error().Err(uerr).Msg("Failed to record parsing error")
		}
		return nil, fmt.Errorf("Parse: %w", err)
	}

	log.Info().Str("transaction_id", tx.ID).Str("partner_id", tx.PartnerID).Msg("Transaction parsed")
	return tx, nil
}

func (s *Service) parse(ctx context.Context, f *domain.File) (*domain.Transaction, error) {
	tx, err := s.transactionFor(ctx, f)
	if err != nil {
		return nil, err
	}

	data, err := s.blobs.Get(ctx, f.StorageLocation)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w: %w", f.StorageLocation, domain.ErrStorage, err)
	}
	content := string(data)

	now := s.now().UTC()
	payload, err := buildParsedPayload(f, content, s.registry, now)
	if err != nil {
		return nil, err
	}

	tx.PartnerID = extractPartnerID(content)
	tx.Status = domain.TransactionStatusParsed
	tx.ProcessedAt = now
	tx.Payload = payload
	if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("updating transaction: %w: %w", domain.ErrStorage, err)
	}

	f.Status = domain.FileStatusProcessed
	f.ProcessedAt = &now
	if err := s.files.UpdateFile(ctx, f); err != nil {
		return nil, fmt.Errorf("updating file: %w: %w", domain.ErrStorage, err)
	}
	return tx, nil
}

// transactionFor returns the transaction created for f at ingestion, creating one
// if it is missing.
func (s *Service) transactionFor(ctx context.Context, f *domain.File) (*domain.Transaction, error) {
	existing, err := s.transactions.ListTransactions(ctx, store.TransactionFilter{FileID: f.ID, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w: %w", domain.ErrStorage, err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	log := logger.FromContext(ctx)
	log.Warn().Str("file_id", f.ID).Msg("File has no transaction, creating one")
	tx, err := newTransactionForFile(f, s.registry, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w: %w", domain.ErrStorage, err)
	}
	return tx, nil
}

// Acknowledge generates the acknowledgment token for tx and marks it Acknowledged.
// Nothing is transmitted. Failures are logged and reported as false, leaving
// tx.Status as it was.
func (s *Service) Acknowledge(ctx context.Context, tx *domain.Transaction) bool {
	log := logger.FromContext(ctx).With().Str("transaction_id", tx.ID).Logger()
	log.Info().Msg("Sending acknowledgment")

	token := s.acks.Generate(tx.TransactionType, tx.ID)

	prev := tx.Status
	tx.Status = domain.TransactionStatusAcknowledged
	if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
		tx.Status = prev
		log.Error().Err(err).Msg("Error sending acknowledgment")
		return false
	}

	log.Info().Str("ack", token).Msg("Acknowledgment sent")
	return true
}

// Process validates f and, when it is valid, parses it. A failed structural check
// returns domain.ErrValidationFailed with f already marked Error.
func (s *Service) Process(ctx context.Context, f *domain.File) (*domain.Transaction, error) {
	valid, err := s.validateStructure(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("Process: validating file %s: %w", f.ID, err)
	}
	if !valid {
		return nil, fmt.Errorf("Process: file %s: %w: %s", f.ID, domain.ErrValidationFailed, f.ErrorMessage)
	}
	return s.Parse(ctx, f)
}

// IsStructuralFailure reports whether err came from a failed structural check.
func IsStructuralFailure(err error) bool {
	return errors.Is(err, domain.ErrValidationFailed)
}
