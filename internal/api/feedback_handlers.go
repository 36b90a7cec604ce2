package api

import (
	"net/http"

	"stealthcompany.com/clinic/internal/dal"
)

type supportTicketRequest struct {
	SupportIssue string `json:"supportIssue"`
}

// CreateSupportTicket stores a support ticket under a random id
func (h *Handlers) CreateSupportTicket(w http.ResponseWriter, r *http.Request) {
	var req supportTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.SupportTickets.Create(r.Context(), req.SupportIssue)
	observe("support_ticket", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "Support ticket created",
		"ticketId": id,
	})
}

// ListSupportTickets returns every ticket keyed by id
func (h *Handlers) ListSupportTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.models.SupportTickets.List(r.Context())
	observe("support_ticket", "list", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// DeleteSupportTicket removes a ticket
func (h *Handlers) DeleteSupportTicket(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	err := h.models.SupportTickets.Delete(r.Context(), id)
	observe("support_ticket", "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Support ticket deleted",
		"ticketId": id,
	})
}

// CreateReview stores a review rated 1 to 5
func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req dal.NewReview
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.Reviews.Create(r.Context(), req)
	observe("review", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "Review created",
		"reviewId": id,
	})
}

// ListReviews returns every review keyed by id
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.models.Reviews.List(r.Context())
	observe("review", "list", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// DeleteReview removes a review
func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	err := h.models.Reviews.Delete(r.Context(), id)
	observe("review", "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Review deleted",
		"reviewId": id,
	})
}
