package edi

import (
	"fmt"
	"strings"

	"github.com/dvloznov/edi-processor/internal/domain"
)

const (
	x12TypeWindow     = 20
	edifactTypeWindow = 50
)

// Result is the verdict of a structural check.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Message joins the errors for display.
func (r Result) Message() string {
	return strings.Join(r.Errors, "; ")
}

func (r *Result) fail(msg string) {
	r.Valid = false
	for _, e := range r.Errors {
		if e == msg {
			return
		}
	}
	r.Errors = append(r.Errors, msg)
}

// Validator performs the header-level well-formedness checks. It is not a grammar
// parser: the rules are substring and position based.
type Validator struct {
	registry *Registry
}

// NewValidator returns a validator backed by registry, or by the default registry if nil.
func NewValidator(registry *Registry) *Validator {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Validator{registry: registry}
}

// Validate checks content against the rules of dialect.
func (v *Validator) Validate(dialect domain.Dialect, content string) Result {
	res := Result{Valid: true}

	if strings.TrimSpace(content) == "" {
		res.fail("File is empty")
		return res
	}

	switch dialect {
	case domain.DialectX12:
		v.validateX12(content, &res)
	case domain.DialectEDIFACT:
		v.validateEdifact(content, &res)
	default:
		res.fail(fmt.Sprintf("Unsupported file type: %s", dialect))
	}
	return res
}

func (v *Validator) validateX12(content string, res *Result) {
	if !strings.HasPrefix(content, "ISA") {
		res.fail("Invalid X12 format: Missing ISA header")
	}
	if !strings.Contains(content, "GS") {
		res.fail("Invalid X12 format: Missing GS segment")
	}
	if !strings.Contains(content, "ST") {
		res.fail("Invalid X12 format: Missing ST segment")
	}

	code, ok := x12TransactionCode(content)
	if ok && !v.registry.IsValid(code) {
		res.fail(fmt.Sprintf("Unsupported X12 transaction type: %s", code))
	}
}

func (v *Validator) validateEdifact(content string, res *Result) {
	if !strings.HasPrefix(content, "UNA") && !strings.HasPrefix(content, "UNB") {
		res.fail("Invalid EDIFACT format: Missing UNA or UNB header")
	}
	if !strings.Contains(content, "UNH") {
		res.fail("Invalid EDIFACT format: Missing UNH segment")
	}

	msgType, ok := edifactMessageType(content)
	if ok && !v.registry.IsValid(msgType) {
		res.fail(fmt.Sprintf("Unsupported EDIFACT message type: %s", msgType))
	}
}

// x12TransactionCode reads the second '*' field of the 20 characters starting at "ST*".
// An empty field is returned as a code and fails the registry check.
func x12TransactionCode(content string) (string, bool) {
	idx := strings.Index(content, "ST*")
	if idx < 0 {
		return "", false
	}
	parts := strings.Split(window(content, idx, x12TypeWindow), "*")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// edifactMessageType reads the message identifier of the UNH segment: the field
// after the first '+' at offset 4 or later, cut at the next '+' or segment
// terminator, up to its first ':'. An empty field is skipped; a field starting
// with ':' yields an empty type.
func edifactMessageType(content string) (string, bool) {
	idx := strings.Index(content, "UNH+")
	if idx < 0 {
		return "", false
	}
	seg := window(content, idx, edifactTypeWindow)
	if len(seg) <= 4 {
		return "", false
	}
	plus := strings.IndexByte(seg[4:], '+')
	if plus < 0 {
		return "", false
	}
	field := seg[4+plus+1:]
	if end := strings.IndexAny(field, "+'"); end >= 0 {
		field = field[:end]
	}
	if field == "" {
		return "", false
	}
	msgType, _, _ := strings.Cut(field, ":")
	return msgType, true
}

func window(s string, start, n int) string {
	end := start + n
	if end > len(s) {
		end = len(s)
	}
	return s[start:end]
}
