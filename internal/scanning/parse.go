package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseScanJSON parses the JSON response from a vision model into a
// ReceiptScan, tolerating markdown fences and surrounding prose.
func parseScanJSON(text string) (*ReceiptScan, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Models sometimes wrap the JSON in prose; keep only the outermost
	// object.
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var scan ReceiptScan
	if err := json.Unmarshal([]byte(text), &scan); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	scan.Name = strings.TrimSpace(scan.Name)
	if scan.Name == "" {
		scan.Name = "Scanned Receipt"
	}

	// Drop lines the model misread: empty names and non-positive prices
	// would be rejected at item creation anyway.
	items := scan.Items[:0]
	for _, item := range scan.Items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" || item.Price <= 0 {
			continue
		}
		items = append(items, item)
	}
	scan.Items = items

	if scan.Tax < 0 {
		scan.Tax = 0
	}
	if scan.Tip < 0 {
		scan.Tip = 0
	}

	return &scan, nil
}
