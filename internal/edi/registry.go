// Package edi holds the format knowledge of the service: the supported transaction
// types, file classification, structural checks, header segment extraction and
// acknowledgment tokens. Everything here is free of I/O.
package edi

import (
	"sort"
	"strings"
)

const (
	unknownDocumentName = "Unknown"
	unknownDescription  = "Unknown transaction type"
)

// TransactionTypeInfo describes one supported business document. X12Code is the
// identity; EdifactNames lists the equivalent EDIFACT messages in preference order.
type TransactionTypeInfo struct {
	X12Code      string   `json:"x12Code"`
	EdifactNames []string `json:"edifactNames"`
	DocumentName string   `json:"documentName"`
	Description  string   `json:"description"`
}

func (t TransactionTypeInfo) clone() TransactionTypeInfo {
	t.EdifactNames = append([]string(nil), t.EdifactNames...)
	return t
}

// Registry maps X12 transaction-set codes to EDIFACT message names and back.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	types        []TransactionTypeInfo
	byCode       map[string]int
	codes        []string
	edifactNames []string
}

var defaultRegistry = NewRegistry([]TransactionTypeInfo{
	{X12Code: "850", EdifactNames: []string{"ORDERS"}, DocumentName: "Purchase Order", Description: "Order request"},
	{X12Code: "810", EdifactNames: []string{"INVOIC"}, DocumentName: "Invoice", Description: "Billing information"},
	{X12Code: "856", EdifactNames: []string{"DESADV"}, DocumentName: "Advance Ship Notice", Description: "Shipping notification"},
	{X12Code: "855", EdifactNames: []string{"ORDRSP"}, DocumentName: "Purchase Order Acknowledgement", Description: "PO confirmation"},
	{X12Code: "820", EdifactNames: []string{"PAYMUL", "REMADV"}, DocumentName: "Payment Order/Remittance", Description: "Payment/remittance information"},
	{X12Code: "862", EdifactNames: []string{"DELFOR"}, DocumentName: "Shipping Schedule", Description: "Delivery schedule"},
	{X12Code: "997", EdifactNames: []string{"CONTRL"}, DocumentName: "Functional Acknowledgement", Description: "Receipt confirmation of EDI message"},
})

// DefaultRegistry returns the process-wide registry of supported transaction types.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry builds a registry from the given table. The table order defines the
// order of AllCodes and AllEdifactNames.
func NewRegistry(types []TransactionTypeInfo) *Registry {
	r := &Registry{
		byCode: make(map[string]int),
	}
	for _, t := range types {
		idx := len(r.types)
		r.types = append(r.types, t.clone())
		r.byCode[strings.ToUpper(t.X12Code)] = idx
		r.codes = append(r.codes, t.X12Code)
		for _, name := range t.EdifactNames {
			r.byCode[strings.ToUpper(name)] = idx
			r.edifactNames = append(r.edifactNames, name)
		}
	}
	return r
}

// Lookup resolves an X12 code or an EDIFACT name, ignoring case. Surrounding
// whitespace is not trimmed.
func (r *Registry) Lookup(code string) (TransactionTypeInfo, bool) {
	idx, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return TransactionTypeInfo{}, false
	}
	return r.types[idx].clone(), true
}

// IsValid reports whether code is a supported X12 code or EDIFACT name.
func (r *Registry) IsValid(code string) bool {
	_, ok := r.byCode[strings.ToUpper(code)]
	return ok
}

// AllCodes returns the supported X12 codes in classification order.
func (r *Registry) AllCodes() []string {
	return append([]string(nil), r.codes...)
}

// AllEdifactNames returns the supported EDIFACT names in classification order.
func (r *Registry) AllEdifactNames() []string {
	return append([]string(nil), r.edifactNames...)
}

// All returns every transaction type sorted by X12 code.
func (r *Registry) All() []TransactionTypeInfo {
	out := make([]TransactionTypeInfo, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X12Code < out[j].X12Code })
	return out
}

// X12For maps an EDIFACT name to its X12 code. Unmapped input is returned as is.
func (r *Registry) X12For(edifactName string) string {
	if t, ok := r.Lookup(edifactName); ok {
		return t.X12Code
	}
	return edifactName
}

// EdifactFor maps an X12 code to its first EDIFACT name. Unmapped input is returned as is.
func (r *Registry) EdifactFor(x12Code string) string {
	if t, ok := r.Lookup(x12Code); ok && len(t.EdifactNames) > 0 {
		return t.EdifactNames[0]
	}
	return x12Code
}

// DocumentName returns the human-readable name for code, or "Unknown".
func (r *Registry) DocumentName(code string) string {
	if t, ok := r.Lookup(code); ok {
		return t.DocumentName
	}
	return unknownDocumentName
}

// Description returns the description for code, or "Unknown transaction type".
func (r *Registry) Description(code string) string {
	if t, ok := r.Lookup(code); ok {
		return t.Description
	}
	return unknownDescription
}
