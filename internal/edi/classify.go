package edi

import (
	"path/filepath"
	"strings"

	"github.com/dvloznov/edi-processor/internal/domain"
)

const defaultTransactionType = "850"

// ediExtensions are the file extensions accepted from drop directories.
var ediExtensions = map[string]bool{
	".edi": true,
	".x12": true,
	".txt": true,
	".dat": true,
	".xml": true,
}

// Classifier guesses dialect and transaction type from a file name. The guess is a
// hint only; validation confirms it against the content.
type Classifier struct {
	registry *Registry
}

// NewClassifier returns a classifier backed by registry, or by the default registry if nil.
func NewClassifier(registry *Registry) *Classifier {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Classifier{registry: registry}
}

// Classify returns the dialect and transaction-type code for fileName.
//
// X12 codes are scanned before EDIFACT names and the last scan that matches wins,
// so "850_ORDERS.edi" classifies as (EDIFACT, "ORDERS").
func (c *Classifier) Classify(fileName string) (domain.Dialect, string) {
	dialect := domain.DialectX12
	code := defaultTransactionType

	upper := strings.ToUpper(fileName)
	if strings.Contains(upper, "EDIFACT") || strings.Contains(upper, "UNB") {
		dialect = domain.DialectEDIFACT
	}

	for _, x12 := range c.registry.AllCodes() {
		if strings.Contains(upper, strings.ToUpper(x12)) {
			code = x12
			dialect = domain.DialectX12
			break
		}
	}

	for _, name := range c.registry.AllEdifactNames() {
		if strings.Contains(upper, strings.ToUpper(name)) {
			code = name
			dialect = domain.DialectEDIFACT
			break
		}
	}

	return dialect, code
}

// IsEdiFile reports whether fileName looks like an EDI document worth ingesting.
func (c *Classifier) IsEdiFile(fileName string) bool {
	if ediExtensions[strings.ToLower(filepath.Ext(fileName))] {
		return true
	}
	upper := strings.ToUpper(fileName)
	for _, x12 := range c.registry.AllCodes() {
		if strings.Contains(upper, x12) {
			return true
		}
	}
	for _, name := range c.registry.AllEdifactNames() {
		if strings.Contains(upper, name) {
			return true
		}
	}
	return false
}

// IsEdiFile reports whether fileName looks like an EDI document, using the default registry.
func IsEdiFile(fileName string) bool {
	return NewClassifier(nil).IsEdiFile(fileName)
}
