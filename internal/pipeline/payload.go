package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/edi"
)

const unknownMessageDescription = "Unknown message type"

// receiptPayload is stored on a transaction when its file is received.
type receiptPayload struct {
	FileID          string                   `json:"fileId"`
	FileName        string                   `json:"fileName"`
	FileType        domain.Dialect           `json:"fileType"`
	TransactionType string                   `json:"transactionType"`
	TransactionName string                   `json:"transactionName"`
	Description     string                   `json:"description"`
	Source          domain.Source            `json:"source"`
	ReceivedAt      time.Time                `json:"receivedAt"`
	Status          domain.TransactionStatus `json:"status"`
	ProcessingNotes string                   `json:"processingNotes"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// X12Payload is the parsed payload of an X12 document.
type X12Payload struct {
	Format          string    `json:"format"`
	TransactionType string    `json:"transactionType"`
	TransactionName string    `json:"transactionName"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	ParsedAt        time.Time `json:"parsedAt"`
	ISASegment      *string   `json:"isaSegment"`
	GSSegment       *string   `json:"gsSegment"`
	STSegment       *string   `json:"stSegment"`
}

// EdifactPayload is the parsed payload of an EDIFACT interchange.
type EdifactPayload struct {
	Format      string    `json:"format"`
	MessageType string    `json:"messageType"`
	MessageName string    `json:"messageName"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ParsedAt    time.Time `json:"parsedAt"`
	UNBSegment  *string   `json:"unbSegment"`
	UNHSegment  *string   `json:"unhSegment"`
}

func buildReceiptPayload(f *domain.File, reg *edi.Registry, now time.Time) (string, error) {
	p := receiptPayload{
		FileID:          f.ID,
		FileName:        f.FileName,
		FileType:        f.Dialect,
		TransactionType: f.TransactionType,
		TransactionName: reg.DocumentName(f.TransactionType),
		Description:     reg.Description(f.TransactionType),
		Source:          f.Source,
		ReceivedAt:      f.ReceivedAt,
		Status:          domain.TransactionStatusReceived,
		ProcessingNotes: ReceiptNote,
		CreatedAt:       now,
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildReceiptPayload: %w", err)
	}
	return string(data), nil
}

// buildParsedPayload extracts the header segments of content into the payload for f's dialect.
func buildParsedPayload(f *domain.File, content string, reg *edi.Registry, now time.Time) (string, error) {
	var p any
	switch f.Dialect {
	case domain.DialectX12:
		p = X12Payload{
			Format:          string(domain.DialectX12),
			TransactionType: f.TransactionType,
			TransactionName: reg.DocumentName(f.TransactionType),
			Description:     reg.Description(f.TransactionType),
			Content:         excerpt(content, ContentExcerptLimit),
			ParsedAt:        now,
			ISASegment:      segment(content, "ISA"),
			GSSegment:       segment(content, "GS"),
			STSegment:       segment(content, "ST"),
		}
	case domain.DialectEDIFACT:
		desc := unknownMessageDescription
		if info, ok := reg.Lookup(f.TransactionType); ok {
			desc = info.Description
		}
		p = EdifactPayload{
			Format:      string(domain.DialectEDIFACT),
			MessageType: f.TransactionType,
			MessageName: reg.DocumentName(f.TransactionType),
			Description: desc,
			Content:     excerpt(content, ContentExcerptLimit),
			ParsedAt:    now,
			UNBSegment:  segment(content, "UNB"),
			UNHSegment:  segment(content, "UNH"),
		}
	default:
		return "", fmt.Errorf("buildParsedPayload: unsupported file type %q: %w", f.Dialect, domain.ErrParse)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("buildParsedPayload: %v: %w", err, domain.ErrParse)
	}
	return string(data), nil
}

// extractPartnerID returns the trading partner of a parsed document. Envelope
// sender ids are not read yet, so every document maps to the same partner.
func extractPartnerID(content string) string {
	return ParsedPartnerID
}

func segment(content, id string) *string {
	seg, ok := edi.ExtractSegment(content, id)
	if !ok {
		return nil
	}
	return &seg
}

// excerpt returns at most limit runes of s.
func excerpt(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
