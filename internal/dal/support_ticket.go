package dal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stealthcompany.com/clinic/internal/docstore"
)

// SupportTicket is a free-text support request.
type SupportTicket struct {
	SupportIssue string `json:"supportIssue"`
}

// SupportTicketModel handles support ticket documents
type SupportTicketModel struct {
	store docstore.Store
}

// NewSupportTicketModel creates a new support ticket model instance
func NewSupportTicketModel(store docstore.Store) *SupportTicketModel {
	return &SupportTicketModel{store: store}
}

// Create stores the ticket under a random id
func (m *SupportTicketModel) Create(ctx context.Context, issue string) (string, error) {
	if strings.TrimSpace(issue) == "" {
		return "", Validation("Support message is required")
	}
	id, err := m.store.Add(ctx, SupportTickets, SupportTicket{SupportIssue: issue})
	if err != nil {
		return "", fmt.Errorf("store support ticket: %w", err)
	}
	return id, nil
}

// List returns every ticket keyed by id
func (m *SupportTicketModel) List(ctx context.Context) (map[string]SupportTicket, error) {
	snaps, err := m.store.Stream(ctx, SupportTickets)
	if err != nil {
		return nil, fmt.Errorf("list support tickets: %w", err)
	}
	return decodeAll[SupportTicket](snaps)
}

// Delete removes a ticket
func (m *SupportTicketModel) Delete(ctx context.Context, id string) error {
	return deleteExisting(ctx, m.store, SupportTickets, id, "Support ticket not found")
}

// deleteExisting removes a flat document, NotFound when it is absent.
func deleteExisting(ctx context.Context, store docstore.Store, c docstore.Collection, id, notFound string) error {
	if _, err := store.Get(ctx, c, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return NotFound("%s", notFound)
		}
		return fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	if err := store.Delete(ctx, c, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c, id, err)
	}
	return nil
}
