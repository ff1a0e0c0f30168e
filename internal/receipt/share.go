package receipt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
)

// Query parameter names carried in a share link. When both are present,
// ParamInline wins.
const (
	ParamInline    = "data"
	ParamReference = "receipt"
)

// Inline payload size ceiling: the stripped JSON before encoding, and the
// encoded token after. Payloads over either limit fall back to reference
// mode so links stay within what browsers and chat apps reliably carry.
const (
	inlineJSONLimit    = 2000
	inlineEncodedLimit = 2048
)

// Mode identifies what kind of share token was produced or resolved.
type Mode string

const (
	// ModeInline carries a stripped receipt directly in the token; no
	// server-side lookup is needed to resolve it.
	ModeInline Mode = "inline"

	// ModeReference carries a store key; the recipient resolves it against
	// the shared store.
	ModeReference Mode = "reference"

	// ModeDashboard means no token at all: host/dashboard view.
	ModeDashboard Mode = "dashboard"
)

// ShareToken is a shareable reference to a receipt.
type ShareToken struct {
	Mode  Mode   `json:"mode"`
	Value string `json:"value"`
}

// Param returns the query parameter name this token travels under.
func (t ShareToken) Param() string {
	if t.Mode == ModeInline {
		return ParamInline
	}
	return ParamReference
}

// sharePayload is the stripped form of a receipt carried in an inline token.
// Payments and confirmations are intentionally dropped; the recipient starts
// from a clean slate.
type sharePayload struct {
	Name  *string      `json:"name"`
	Items *[]shareItem `json:"items"`
	Tax   float64      `json:"tax"`
	Tip   float64      `json:"tip"`
}

type shareItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	ClaimedBy []string `json:"claimedBy"`
}

var errInlineOverflow = errors.New("inline payload exceeds size limit")

// encodeStrategy attempts one way of producing a share token.
type encodeStrategy func(*Receipt) (ShareToken, error)

// Encode produces a share token for the receipt, trying strategies in order:
// inline payload, then a checked store reference, then a minimal reference
// that performs no serialization at all. The chain is the only resilience
// mechanism for the size-constrained inline transport, so every step must
// stay.
func Encode(r *Receipt) (ShareToken, error) {
	strategies := []encodeStrategy{
		encodeInline,
		encodeReference,
		encodeMinimalReference,
	}
	var lastErr error
	for _, strategy := range strategies {
		token, err := strategy(r)
		if err == nil {
			return token, nil
		}
		lastErr = err
	}
	return ShareToken{}, errors.Join(errors.New("unable to share receipt"), lastErr)
}

// encodeInline serializes a stripped receipt to base64 JSON. Fails when the
// payload would overflow the transport ceiling.
func encodeInline(r *Receipt) (ShareToken, error) {
	items := make([]shareItem, len(r.Items))
	for i, item := range r.Items {
		claimedBy := item.ClaimedBy
		if claimedBy == nil {
			claimedBy = []string{}
		}
		items[i] = shareItem{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			ClaimedBy: claimedBy,
		}
	}
	name := r.Name
	payload := sharePayload{
		Name:  &name,
		Items: &items,
		Tax:   r.Tax,
		Tip:   r.Tip,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ShareToken{}, err
	}
	if len(data) > inlineJSONLimit {
		return ShareToken{}, errInlineOverflow
	}
	encoded := base64.URLEncoding.EncodeToString(data)
	if len(encoded) > inlineEncodedLimit {
		return ShareToken{}, errInlineOverflow
	}
	return ShareToken{Mode: ModeInline, Value: encoded}, nil
}

// encodeReference hands out the receipt's store key after verifying the full
// document still serializes, so a broken receipt is caught before the link
// leaves the host.
func encodeReference(r *Receipt) (ShareToken, error) {
	if r.ID == "" {
		return ShareToken{}, errors.New("receipt has no store key")
	}
	if _, err := json.Marshal(r); err != nil {
		return ShareToken{}, err
	}
	return ShareToken{Mode: ModeReference, Value: r.ID}, nil
}

// encodeMinimalReference is the last-resort fallback: the bare store key
// with no checks.
func encodeMinimalReference(r *Receipt) (ShareToken, error) {
	if r.ID == "" {
		return ShareToken{}, errors.New("receipt has no store key")
	}
	return ShareToken{Mode: ModeReference, Value: r.ID}, nil
}

// DecodeQuery detects which share mode a query string represents. An inline
// payload takes priority over a reference; absence of both means the
// host/dashboard view.
func DecodeQuery(q url.Values) ShareToken {
	if v := q.Get(ParamInline); v != "" {
		return ShareToken{Mode: ModeInline, Value: v}
	}
	if v := q.Get(ParamReference); v != "" {
		return ShareToken{Mode: ModeReference, Value: v}
	}
	return ShareToken{Mode: ModeDashboard}
}

// DecodeInline reconstructs a receipt from an inline token. Payments and
// confirmations come back empty by design. Malformed tokens yield a
// DecodeError, never a raw parse failure.
func DecodeInline(value string) (*Receipt, error) {
	data, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64 payload", Err: err}
	}
	var payload sharePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON payload", Err: err}
	}
	if payload.Name == nil {
		return nil, &DecodeError{Reason: "missing name field"}
	}
	if payload.Items == nil {
		return nil, &DecodeError{Reason: "missing items field"}
	}

	items := make([]Item, len(*payload.Items))
	for i, item := range *payload.Items {
		claimedBy := item.ClaimedBy
		if claimedBy == nil {
			claimedBy = []string{}
		}
		items[i] = Item{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			ClaimedBy: claimedBy,
		}
	}
	return &Receipt{
		Name:            *payload.Name,
		Items:           items,
		Tax:             payload.Tax,
		Tip:             payload.Tip,
		Payments:        map[string]float64{},
		ConfirmedGuests: map[string]Confirmation{},
	}, nil
}
