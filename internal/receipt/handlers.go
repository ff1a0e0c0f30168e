package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses and a JSON body
func writeError(w http.ResponseWriter, err error) {
	setCORSHeaders(w)

	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		decodeErr     *DecodeError
		storageErr    *StorageError
		transportErr  *TransportError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Message})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFoundErr.Error()})
	case errors.As(err, &decodeErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid or corrupted link"})
	case errors.As(err, &storageErr):
		// In-memory state is intact; the client should retry.
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable, changes not saved"})
	case errors.As(err, &transportErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "remote store unreachable"})
	default:
		slog.Error("Internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// handleGetDraft returns the host's in-progress receipt
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.service.Draft()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleAddDraftItem adds one line item to the draft
func (s *Server) handleAddDraftItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid request body"})
		return
	}
	draft, err := s.service.AddDraftItem(req.Name, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// handleDeleteDraftItem removes one line item from the draft
func (s *Server) handleDeleteDraftItem(w http.ResponseWriter, r *http.Request) {
	draft, err := s.service.DeleteDraftItem(r.PathValue("itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleSetDraftDetails updates the draft's name, tax, and tip
func (s *Server) handleSetDraftDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string  `json:"name"`
		Tax  float64 `json:"tax"`
		Tip  float64 `json:"tip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid request body"})
		return
	}
	draft, err := s.service.SetDraftDetails(req.Name, req.Tax, req.Tip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleDiscardDraft throws the draft away
func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardDraft(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublishDraft finalizes the draft under a shareable token
func (s *Server) handlePublishDraft(w http.ResponseWriter, r *http.Request) {
	receipt, token, err := s.service.Publish(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"receipt": receipt,
		"share":   token,
	})
}

// handleListReceipts returns all receipts for the dashboard
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.service.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleDeleteReceipt deletes a receipt
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSplit returns the computed split for a receipt
func (s *Server) handleGetSplit(w http.ResponseWriter, r *http.Request) {
	split, err := s.service.SplitFor(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

// handleGetBalances returns the reconciled balances for a receipt
func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	split, balances, err := s.service.BalancesFor(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"split":    split,
		"balances": balances,
	})
}

// handleGetShare returns a fresh share token for a receipt
func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	token, err := s.service.Share(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// handleToggleClaim flips a guest's claim on an item
func (s *Server) handleToggleClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
		Person string `json:"person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid request body"})
		return
	}
	receipt, err := s.service.ToggleClaim(r.Context(), r.PathValue("id"), req.ItemID, req.Person)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleRecordPayment sets a guest's paid amount
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Person string  `json:"person"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid request body"})
		return
	}
	receipt, err := s.service.RecordPayment(r.Context(), r.PathValue("id"), req.Person, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleConfirmSelection records a guest's confirmation snapshot
func (s *Server) handleConfirmSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Person string `json:"person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Message: "invalid request body"})
		return
	}
	receipt, err := s.service.ConfirmSelection(r.Context(), r.PathValue("id"), req.Person)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleResolve resolves a share link's query parameters into a receipt.
// With no token at all the caller is in host/dashboard mode.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	receipt, mode, err := s.service.Resolve(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":    mode,
		"receipt": receipt,
	})
}

// handleExportReceipt serves a receipt as a downloadable JSON document
func (s *Server) handleExportReceipt(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.service.Export(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// handleImportReceipt accepts an exported receipt document
func (s *Server) handleImportReceipt(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, &ValidationError{Message: "error reading request body"})
		return
	}
	receipt, err := s.service.Import(data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// handleScanReceipt accepts a receipt photo/PDF upload and prefills the
// draft from it
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	// 50MB cap to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, &ValidationError{Message: "error parsing form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, &ValidationError{Message: "no file provided"})
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		writeError(w, &ValidationError{Message: "file is too large, maximum size is 50MB"})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, fmt.Errorf("reading upload: %w", err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	draft, err := s.service.ScanToDraft(data, contentType)
	if err != nil {
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
