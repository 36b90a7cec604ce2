package dal

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
)

// Roles an account may hold.
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
	RoleAdmin   = "admin"
)

const invalidCredentials = "invalid credentials"

// Account is the stored account document. The password is kept as given.
type Account struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AccountModel handles account documents
type AccountModel struct {
	store docstore.Store
}

// NewAccountModel creates a new account model instance
func NewAccountModel(store docstore.Store) *AccountModel {
	return &AccountModel{store: store}
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleDoctor, RolePatient, RoleAdmin:
		return true
	}
	return false
}

// Create stores a new account and returns its store-assigned id. The
// email uniqueness check and the insert are separate store calls, so two
// concurrent creates for one email can both succeed.
func (m *AccountModel) Create(ctx context.Context, email, password, role string) (string, error) {
	if !ValidRole(role) {
		return "", Validation("role must be doctor, patient or admin")
	}
	if err := requireFields(map[string]string{"email": email, "password": password}); err != nil {
		return "", err
	}

	existing, err := m.store.Where(ctx, Accounts, "email", email, 1)
	if err != nil {
		return "", fmt.Errorf("look up account: %w", err)
	}
	if len(existing) > 0 {
		return "", Conflict("account already exists")
	}

	id, err := m.store.Add(ctx, Accounts, Account{Email: email, Password: password, Role: role})
	if err != nil {
		return "", fmt.Errorf("store account: %w", err)
	}

	log.Info().Str("accountId", id).Str("role", role).Msg("Account created")
	return id, nil
}

// CheckCredentials returns the account role when email and password match.
// Unknown email and wrong password fail with the same error.
func (m *AccountModel) CheckCredentials(ctx context.Context, email, password string) (string, error) {
	snaps, err := m.store.Where(ctx, Accounts, "email", email, 1)
	if err != nil {
		return "", fmt.Errorf("look up account: %w", err)
	}
	if len(snaps) == 0 {
		return "", Unauthorized("%s", invalidCredentials)
	}

	var account Account
	if err := snaps[0].DataTo(&account); err != nil {
		return "", fmt.Errorf("decode account %s: %w", snaps[0].ID, err)
	}
	if account.Password != password {
		return "", Unauthorized("%s", invalidCredentials)
	}
	return account.Role, nil
}
