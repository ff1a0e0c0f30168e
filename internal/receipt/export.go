package receipt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// exportDocument mirrors the receipt's document shape with optional fields
// so import can tell "absent" from "empty".
type exportDocument struct {
	ID              string                  `json:"id,omitempty"`
	Name            *string                 `json:"name"`
	Items           *[]Item                 `json:"items"`
	Tax             float64                 `json:"tax"`
	Tip             float64                 `json:"tip"`
	Payments        map[string]float64      `json:"payments,omitempty"`
	ConfirmedGuests map[string]Confirmation `json:"confirmedGuests,omitempty"`
	CreatedAt       time.Time               `json:"created_at,omitempty"`
}

// ExportJSON serializes a receipt to a self-describing JSON document and
// returns it with a download filename of the form <name>_<YYYY-MM-DD>.json.
func ExportJSON(r *Receipt) ([]byte, string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshaling receipt: %w", err)
	}

	date := r.CreatedAt
	if date.IsZero() {
		date = time.Now()
	}
	filename := fmt.Sprintf("%s_%s.json", sanitizeExportName(r.Name), date.Format("2006-01-02"))
	return data, filename, nil
}

// ImportJSON validates and parses an exported receipt document. The document
// must carry a name (string, may be empty) and an items sequence; anything
// else is rejected with a DecodeError.
func ImportJSON(data []byte) (*Receipt, error) {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Reason: "invalid receipt document", Err: err}
	}
	if doc.Name == nil {
		return nil, &DecodeError{Reason: "missing name field"}
	}
	if doc.Items == nil {
		return nil, &DecodeError{Reason: "missing items field"}
	}

	r := &Receipt{
		ID:              doc.ID,
		Name:            *doc.Name,
		Items:           *doc.Items,
		Tax:             doc.Tax,
		Tip:             doc.Tip,
		Payments:        doc.Payments,
		ConfirmedGuests: doc.ConfirmedGuests,
		CreatedAt:       doc.CreatedAt,
	}
	for i := range r.Items {
		if r.Items[i].ClaimedBy == nil {
			r.Items[i].ClaimedBy = []string{}
		}
	}
	return r, nil
}

var (
	exportNameStrip    = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	exportNameCollapse = regexp.MustCompile(`\s+`)
)

// sanitizeExportName cleans a receipt name for use in a filename: special
// characters removed, whitespace collapsed to underscores, length capped.
func sanitizeExportName(name string) string {
	name = exportNameStrip.ReplaceAllString(name, "")
	name = exportNameCollapse.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "receipt"
	}
	return name
}
