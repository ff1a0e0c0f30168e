package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/tabsplit/tabsplit/internal/scanning"
)

// IDGenerator generates unique IDs for receipts and items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations. Every mutating operation persists
// explicitly and then replicates; a failed replication is a warning, not a
// failure, and the local copy stays authoritative until the remote store
// comes back.
type Service struct {
	db          DB
	replicator  Replicator
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time
// source. The scanner may be nil when scanning is not configured.
func NewService(db DB, replicator Replicator, scanner scanning.Scanner) *Service {
	return NewServiceWithDeps(db, replicator, scanner, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, replicator Replicator, scanner scanning.Scanner, idGen IDGenerator, timeSrc TimeSource) *Service {
	if replicator == nil {
		replicator = NoopReplicator{}
	}
	return &Service{
		db:          db,
		replicator:  replicator,
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Draft returns the host's in-progress receipt, creating an empty one if
// none is stored.
func (s *Service) Draft() (*Receipt, error) {
	draft, err := s.db.GetDraft()
	if err != nil {
		return nil, err
	}
	if draft == nil {
		draft = New()
	}
	return draft, nil
}

// AddDraftItem appends a line item to the draft and persists it.
func (s *Service) AddDraftItem(name string, price float64) (*Receipt, error) {
	draft, err := s.Draft()
	if err != nil {
		return nil, err
	}
	if _, err := draft.AddItem(s.idGenerator.Generate(), name, price); err != nil {
		return nil, err
	}
	err = s.db.SaveDraft(draft)
	countOp("add_item", err)
	return draft, err
}

// DeleteDraftItem removes a line item from the draft and persists it.
func (s *Service) DeleteDraftItem(itemID string) (*Receipt, error) {
	draft, err := s.Draft()
	if err != nil {
		return nil, err
	}
	draft.DeleteItem(itemID)
	err = s.db.SaveDraft(draft)
	countOp("delete_item", err)
	return draft, err
}

// SetDraftDetails updates the draft's name, tax, and tip and persists it.
func (s *Service) SetDraftDetails(name string, tax, tip float64) (*Receipt, error) {
	draft, err := s.Draft()
	if err != nil {
		return nil, err
	}
	if err := draft.SetDetails(name, tax, tip); err != nil {
		return nil, err
	}
	err = s.db.SaveDraft(draft)
	countOp("set_details", err)
	return draft, err
}

// DiscardDraft throws the in-progress receipt away.
func (s *Service) DiscardDraft() error {
	return s.db.DeleteDraft()
}

// Publish finalizes the draft: assigns an ID, defaults a blank name, stores
// the receipt under its shareable key, pushes it to the remote store, and
// clears the draft. Returns the receipt together with its share token.
func (s *Service) Publish(ctx context.Context) (*Receipt, ShareToken, error) {
	draft, err := s.Draft()
	if err != nil {
		return nil, ShareToken{}, err
	}
	if len(draft.Items) == 0 {
		return nil, ShareToken{}, &ValidationError{Message: "at least one item is required"}
	}
	if draft.Name == "" {
		draft.Name = DefaultName
	}

	now := s.timeSource.Now()
	draft.ID = s.idGenerator.Generate()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.db.SaveReceipt(draft); err != nil {
		countOp("publish", err)
		return nil, ShareToken{}, err
	}
	countOp("publish", nil)

	token, err := Encode(draft)
	if err != nil {
		return nil, ShareToken{}, fmt.Errorf("encoding share token: %w", err)
	}

	s.replicate(ctx, draft)

	if err := s.db.DeleteDraft(); err != nil {
		slog.Warn("Failed to clear draft after publish", "error", err)
	}
	return draft, token, nil
}

// Get retrieves a receipt by ID.
func (s *Service) Get(id string) (*Receipt, error) {
	return s.db.GetReceipt(id)
}

// List returns all stored receipts for the dashboard.
func (s *Service) List() ([]*Receipt, error) {
	return s.db.ListReceipts()
}

// Delete removes a receipt from the store.
func (s *Service) Delete(id string) error {
	err := s.db.DeleteReceipt(id)
	countOp("delete_receipt", err)
	return err
}

// Resolve turns the query parameters of a share link into a receipt. An
// inline payload beats a reference; neither means dashboard mode and a nil
// receipt.
func (s *Service) Resolve(q url.Values) (*Receipt, Mode, error) {
	token := DecodeQuery(q)
	switch token.Mode {
	case ModeInline:
		r, err := DecodeInline(token.Value)
		if err != nil {
			return nil, ModeInline, err
		}
		return r, ModeInline, nil
	case ModeReference:
		r, err := s.db.GetReceipt(token.Value)
		if err != nil {
			return nil, ModeReference, err
		}
		return r, ModeReference, nil
	default:
		return nil, ModeDashboard, nil
	}
}

// Share re-encodes an existing receipt into a fresh share token.
func (s *Service) Share(id string) (ShareToken, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return ShareToken{}, err
	}
	return Encode(r)
}

// ToggleClaim flips a guest's claim on an item, persists, and replicates.
func (s *Service) ToggleClaim(ctx context.Context, id, itemID, person string) (*Receipt, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, err
	}
	if err := r.ToggleClaim(itemID, person); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.timeSource.Now()
	err = s.db.SaveReceipt(r)
	countOp("toggle_claim", err)
	if err != nil {
		return r, err
	}
	s.replicate(ctx, r)
	return r, nil
}

// RecordPayment sets a guest's paid amount, persists, and replicates only
// the payments path to limit write scope.
func (s *Service) RecordPayment(ctx context.Context, id, person string, amount float64) (*Receipt, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, err
	}
	if err := r.RecordPayment(person, amount); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.timeSource.Now()
	err = s.db.SaveReceipt(r)
	countOp("record_payment", err)
	if err != nil {
		return r, err
	}
	if err := s.replicator.PublishPartial(ctx, r.ID, "payments."+person, r.Payments[person]); err != nil {
		slog.Warn("Replication unavailable, continuing on local copy", "receipt_id", r.ID, "error", err)
	}
	return r, nil
}

// ConfirmSelection records a guest's confirmation snapshot, persists, and
// replicates.
func (s *Service) ConfirmSelection(ctx context.Context, id, person string) (*Receipt, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, err
	}
	if err := r.Confirm(person, s.timeSource.Now()); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.timeSource.Now()
	err = s.db.SaveReceipt(r)
	countOp("confirm", err)
	if err != nil {
		return r, err
	}
	s.replicate(ctx, r)
	return r, nil
}

// SplitFor computes the split breakdown for a stored receipt.
func (s *Service) SplitFor(id string) (*Split, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, err
	}
	return ComputeSplit(r), nil
}

// BalancesFor computes the split and reconciled balances for a stored
// receipt.
func (s *Service) BalancesFor(id string) (*Split, *Balances, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, nil, err
	}
	split := ComputeSplit(r)
	return split, ComputeBalances(r, split), nil
}

// Export serializes a stored receipt for download.
func (s *Service) Export(id string) ([]byte, string, error) {
	r, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", err
	}
	return ExportJSON(r)
}

// Import accepts an exported receipt document and stores it as a new
// receipt.
func (s *Service) Import(data []byte) (*Receipt, error) {
	r, err := ImportJSON(data)
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = s.idGenerator.Generate()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.timeSource.Now()
	}
	r.UpdatedAt = s.timeSource.Now()
	err = s.db.SaveReceipt(r)
	countOp("import", err)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ScanToDraft runs a receipt image through the scanner and replaces the
// draft with the extracted items, tax, and tip.
func (s *Service) ScanToDraft(imageData []byte, contentType string) (*Receipt, error) {
	if s.scanner == nil {
		return nil, &ValidationError{Message: "receipt scanning is not configured"}
	}
	scan, err := s.scanner.ScanReceipt(imageData, contentType)
	if err != nil {
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	draft := New()
	draft.Name = scan.Name
	draft.Tax = scan.Tax
	draft.Tip = scan.Tip
	for _, item := range scan.Items {
		if _, err := draft.AddItem(s.idGenerator.Generate(), item.Name, item.Price); err != nil {
			slog.Warn("Skipping scanned item", "item", item.Name, "error", err)
		}
	}
	err = s.db.SaveDraft(draft)
	countOp("scan", err)
	return draft, err
}

// SweepOlderThan deletes receipts created before the cutoff and returns how
// many were removed.
func (s *Service) SweepOlderThan(age time.Duration) (int, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return 0, err
	}
	cutoff := s.timeSource.Now().Add(-age)
	removed := 0
	for _, r := range receipts {
		if r.CreatedAt.Before(cutoff) {
			if err := s.db.DeleteReceipt(r.ID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// Watch subscribes to remote changes for a receipt. Each remote document
// replaces the local copy wholesale; split and balance views are re-derived
// from the store on the next read.
func (s *Service) Watch(ctx context.Context, id string) (func(), error) {
	return s.replicator.Subscribe(ctx, id, func(remote *Receipt) {
		if remote.ID == "" {
			remote.ID = id
		}
		if err := s.db.SaveReceipt(remote); err != nil {
			slog.Warn("Failed to store replicated receipt", "receipt_id", id, "error", err)
			return
		}
		slog.Debug("Applied remote update", "receipt_id", id)
	})
}

// replicate pushes the full document to the remote store. Transport
// failures are connectivity warnings; the local copy remains authoritative.
func (s *Service) replicate(ctx context.Context, r *Receipt) {
	if err := s.replicator.Publish(ctx, r.ID, r); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			slog.Warn("Replication unavailable, continuing on local copy", "receipt_id", r.ID, "error", err)
			return
		}
		slog.Error("Replication failed", "receipt_id", r.ID, "error", err)
	}
}
