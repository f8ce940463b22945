package edi

import (
	"fmt"
	"time"

	"github.com/dvloznov/edi-processor/internal/domain"
)

const ackTimestampLayout = "20060102150405"

// Acknowledgment describes the receipt confirmation produced for a transaction.
// Transmission to the partner is not performed.
type Acknowledgment struct {
	Token string `json:"token"`

	// DocumentType is the acknowledgment document: 997 for X12, CONTRL for EDIFACT.
	DocumentType string `json:"documentType"`

	AcknowledgedType string    `json:"acknowledgedType"`
	AcknowledgedName string    `json:"acknowledgedName"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// AckGenerator builds acknowledgment tokens.
type AckGenerator struct {
	registry *Registry
	now      func() time.Time
}

// NewAckGenerator returns a generator using registry (default if nil) and the wall clock.
func NewAckGenerator(registry *Registry) *AckGenerator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &AckGenerator{registry: registry, now: time.Now}
}

// WithClock returns a copy of g reading time from now.
func (g *AckGenerator) WithClock(now func() time.Time) *AckGenerator {
	cp := *g
	cp.now = now
	return &cp
}

// Generate returns ACK_<type>_<id>_<yyyyMMddHHmmss> using the current UTC time.
func (g *AckGenerator) Generate(transactionType, transactionID string) string {
	return formatToken(transactionType, transactionID, g.now().UTC())
}

// Acknowledgment returns the token together with the acknowledgment document type
// for the dialect.
func (g *AckGenerator) Acknowledgment(dialect domain.Dialect, transactionType, transactionID string) Acknowledgment {
	at := g.now().UTC()

	docType := "997"
	if dialect == domain.DialectEDIFACT {
		docType = g.registry.EdifactFor("997")
	}

	return Acknowledgment{
		Token:            formatToken(transactionType, transactionID, at),
		DocumentType:     docType,
		AcknowledgedType: transactionType,
		AcknowledgedName: g.registry.DocumentName(transactionType),
		GeneratedAt:      at,
	}
}

func formatToken(transactionType, transactionID string, at time.Time) string {
	return fmt.Sprintf("ACK_%s_%s_%s", transactionType, transactionID, at.Format(ackTimestampLayout))
}
