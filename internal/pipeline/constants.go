package pipeline

// Fixed values written by the pipeline.
const (
	// PlaceholderPartnerID marks a transaction whose document has not been parsed yet.
	PlaceholderPartnerID = "AUTO_GENERATED"

	// ParsedPartnerID is assigned to every parsed transaction until partner
	// extraction reads the envelope sender.
	ParsedPartnerID = "PARTNER001"

	// ContentExcerptLimit caps the document excerpt stored in the parsed payload, in characters.
	ContentExcerptLimit = 1000

	// ReceiptNote is the processing note of an auto-created transaction.
	ReceiptNote = "Transaction automatically created upon file receipt"
)
