package scanning

// ScannedItem is one line item extracted from a receipt image.
type ScannedItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ReceiptScan contains the line items, tax, and tip extracted from a receipt
// image, used to prefill the host's draft.
type ReceiptScan struct {
	Name  string        `json:"name"`
	Items []ScannedItem `json:"items"`
	Tax   float64       `json:"tax"`
	Tip   float64       `json:"tip"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and extracts line items
	ScanReceipt(imageData []byte, contentType string) (*ReceiptScan, error)
	// Close closes the scanner and releases resources
	Close() error
}
