package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/evekey-api/internal/api/shared"
	"github.com/phrazzld/evekey-api/internal/store"
	"github.com/phrazzld/evekey-api/internal/task"
)

// KeyLookupService is the surface of the key service the handler depends on.
type KeyLookupService interface {
	SubmitLookup(ctx context.Context, keyID int64, vcode, account string) (task.KeyLookupRequest, error)
}

// KeyHandler handles API key verification endpoints.
type KeyHandler struct {
	service   KeyLookupService
	keyStore  store.KeyStore
	logger    *slog.Logger
	validator *validator.Validate
}

// NewKeyHandler creates a new KeyHandler with the given dependencies.
func NewKeyHandler(service KeyLookupService, keyStore store.KeyStore, logger *slog.Logger) *KeyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyHandler{
		service:   service,
		keyStore:  keyStore,
		logger:    logger.With(slog.String("component", "key_handler")),
		validator: validator.New(),
	}
}

// SubmitKeyRequest is the request body for submitting a key lookup.
type SubmitKeyRequest struct {
	KeyID   int64  `json:"key_id"  validate:"required,gt=0"`
	VCode   string `json:"vcode"   validate:"required"`
	Account string `json:"account" validate:"required"`
}

// SubmitKeyResponse acknowledges an accepted lookup. Verification runs
// asynchronously; the request ID correlates the eventual result.
type SubmitKeyResponse struct {
	RequestID string `json:"request_id"`
	KeyID     int64  `json:"key_id"`
	Account   string `json:"account"`
	Status    string `json:"status"`
}

// SubmitKey handles POST /api/keys. It enqueues an asynchronous lookup and
// responds 202 Accepted with the correlation id.
func (h *KeyHandler) SubmitKey(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(slog.String("trace_id", shared.GetTraceID(r.Context())))

	var req SubmitKeyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("failed to decode request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		log.Debug("request validation failed", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation failed: key_id, vcode and account are required")
		return
	}

	lookup, err := h.service.SubmitLookup(r.Context(), req.KeyID, req.VCode, req.Account)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("key lookup accepted",
		slog.String("request_id", lookup.ID.String()),
		slog.Int64("key_id", lookup.KeyID),
		slog.String("account", lookup.Account))

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitKeyResponse{
		RequestID: lookup.ID.String(),
		KeyID:     lookup.KeyID,
		Account:   lookup.Account,
		Status:    "pending",
	})
}

// CharacterResponse is one character attached to a key.
type CharacterResponse struct {
	Name        string `json:"name"`
	Corporation string `json:"corporation"`
}

// KeyCharactersResponse lists the characters currently attached to a key.
type KeyCharactersResponse struct {
	KeyID      int64               `json:"key_id"`
	Characters []CharacterResponse `json:"characters"`
}

// GetKeyCharacters handles GET /api/keys/{keyID}/characters. It reports the
// reconciled state from storage, not a fresh provider lookup.
func (h *KeyHandler) GetKeyCharacters(w http.ResponseWriter, r *http.Request) {
	keyID, err := strconv.ParseInt(chi.URLParam(r, "keyID"), 10, 64)
	if err != nil || keyID <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid key ID")
		return
	}

	chars, err := h.keyStore.CharactersForKey(r.Context(), keyID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := KeyCharactersResponse{
		KeyID:      keyID,
		Characters: make([]CharacterResponse, 0, len(chars)),
	}
	for _, c := range chars {
		resp.Characters = append(resp.Characters, CharacterResponse{
			Name:        c.Name,
			Corporation: c.Corporation,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
