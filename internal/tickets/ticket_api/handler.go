package ticket_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticket-engine/internal/logger"
	"ticket-engine/internal/models"
	"ticket-engine/internal/tickets/codegen"
)

// TicketEngine is the coordinator surface the HTTP layer delegates to.
type TicketEngine interface {
	EnsureTickets(ctx context.Context, bookingID string) ([]models.Ticket, error)
	RenderDocument(ctx context.Context, bookingID string) ([]byte, error)
	RenderPreview(ctx context.Context, templateHTML string, vars map[string]string) ([]byte, error)
}

type Handler struct {
	Engine TicketEngine
	Logger *logger.Logger
}

func NewHandler(engine TicketEngine, log *logger.Logger) *Handler {
	return &Handler{Engine: engine, Logger: log}
}

// EnsureTickets creates any missing tickets for the booking and returns the
// full seat-ordered list.
func (h *Handler) EnsureTickets(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	tickets, err := h.Engine.EnsureTickets(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, "Failed to issue tickets", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tickets)
}

// DownloadDocument returns the booking's ticket document as a PDF.
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	data, err := h.Engine.RenderDocument(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, "Failed to render ticket document", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tickets-%s.pdf", bookingID))
	w.Write(data)
}

// PreviewTemplate renders a one-page PDF from an arbitrary template and
// variable map, for the template authoring UI.
func (h *Handler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		HTML      string            `json:"html"`
		Variables map[string]string `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if requestBody.HTML == "" {
		http.Error(w, "html is required", http.StatusBadRequest)
		return
	}

	data, err := h.Engine.RenderPreview(r.Context(), requestBody.HTML, requestBody.Variables)
	if err != nil {
		h.writeError(w, "Failed to render preview", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	if h.Logger != nil {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", message, err))
	}

	switch {
	case errors.Is(err, models.ErrBookingNotFound):
		http.Error(w, message+": "+err.Error(), http.StatusNotFound)
	case errors.Is(err, codegen.ErrCodeExhausted):
		// Retryable for the caller per the issuance failure policy.
		http.Error(w, message+": ticket generation temporarily unavailable, please retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, message+": "+err.Error(), http.StatusInternalServerError)
	}
}
