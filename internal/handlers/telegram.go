package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"notevault-ai/internal/contextutil"
	"notevault-ai/internal/storage"
)

// TelegramHandler handles POST /api/v1/telegram/webhook. It is thin glue:
// a text message becomes a note with source=telegram, everything else is
// acknowledged and skipped. The response is always 200 so Telegram does not
// retry the update.
type TelegramHandler struct {
	users     storage.UserStore
	notes     storage.NoteStore
	processor NoteProcessor
}

// NewTelegramHandler creates a new TelegramHandler.
func NewTelegramHandler(users storage.UserStore, notes storage.NoteStore, processor NoteProcessor) *TelegramHandler {
	return &TelegramHandler{
		users:     users,
		notes:     notes,
		processor: processor,
	}
}

// TelegramUpdate is the subset of the Bot API update payload the webhook
// consumes.
type TelegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// TelegramResponse acknowledges an update.
type TelegramResponse struct {
	Status string `json:"status"`
	NoteID string `json:"note_id,omitempty"`
}

// ServeHTTP ingests one webhook update.
func (h *TelegramHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var update TelegramUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid update payload")
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		logger.InfoContext(ctx, "skipping non-text telegram update", "update_id", update.UpdateID)
		writeJSON(ctx, w, http.StatusOK, TelegramResponse{Status: "skipped"})
		return
	}

	text, err := cleanAndValidateText(update.Message.Text)
	if err != nil {
		logger.InfoContext(ctx, "skipping invalid telegram message", "update_id", update.UpdateID, "error", err)
		writeJSON(ctx, w, http.StatusOK, TelegramResponse{Status: "skipped"})
		return
	}

	owner := fmt.Sprintf("tg:%d", update.Message.Chat.ID)
	if _, err := h.users.GetOrCreate(ctx, owner); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	note := &storage.NoteRecord{
		UserID:           owner,
		InputType:        storage.InputText,
		Source:           "telegram",
		OriginalText:     text,
		ProcessingStatus: storage.StatusPending,
	}
	if err := h.notes.Create(ctx, note); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	processAsync(h.processor, logger, note, text)

	logger.InfoContext(ctx, "telegram note created", "note_id", note.ID, "chat_id", update.Message.Chat.ID)
	writeJSON(ctx, w, http.StatusOK, TelegramResponse{Status: "ok", NoteID: note.ID})
}
