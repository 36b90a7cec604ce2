package dal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
)

// Doctor is the stored doctor document.
type Doctor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

// NewDoctor is the create request for a doctor.
type NewDoctor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

var doctorUpdatable = []string{"firstName", "lastName", "email", "address", "phone"}

// DoctorModel handles doctor documents
type DoctorModel struct {
	store docstore.Store
}

// NewDoctorModel creates a new doctor model instance
func NewDoctorModel(store docstore.Store) *DoctorModel {
	return &DoctorModel{store: store}
}

// Create upserts the doctor under its derived id and returns the id.
func (m *DoctorModel) Create(ctx context.Context, in NewDoctor) (string, error) {
	if err := requireFields(map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"email":      in.Email,
		"address":    in.Address,
		"phone":      in.Phone,
	}); err != nil {
		return "", err
	}

	id := DoctorID(in.LastName)
	doc := Doctor{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Address:   in.Address,
		Phone:     in.Phone,
	}
	if err := m.store.Set(ctx, Doctors, id, doc); err != nil {
		return "", fmt.Errorf("store doctor %s: %w", id, err)
	}

	log.Info().Str("doctorId", id).Msg("Doctor stored")
	return id, nil
}

// Get returns one doctor
func (m *DoctorModel) Get(ctx context.Context, id string) (Doctor, error) {
	var doc Doctor
	snap, err := m.store.Get(ctx, Doctors, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return doc, NotFound("doctor not found")
		}
		return doc, fmt.Errorf("get doctor %s: %w", id, err)
	}
	if err := snap.DataTo(&doc); err != nil {
		return doc, fmt.Errorf("decode doctor %s: %w", id, err)
	}
	return doc, nil
}

// List returns every doctor keyed by id
func (m *DoctorModel) List(ctx context.Context) (map[string]Doctor, error) {
	snaps, err := m.store.Stream(ctx, Doctors)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return decodeAll[Doctor](snaps)
}

// FindByEmail returns the first doctor whose email matches exactly.
func (m *DoctorModel) FindByEmail(ctx context.Context, email string) (string, Doctor, error) {
	var doc Doctor
	if email == "" {
		return "", doc, Validation("Email is required")
	}

	snaps, err := m.store.Where(ctx, Doctors, "email", email, 1)
	if err != nil {
		return "", doc, fmt.Errorf("find doctor by email: %w", err)
	}
	if len(snaps) == 0 {
		return "", doc, NotFound("Doctor not found")
	}
	if err := snaps[0].DataTo(&doc); err != nil {
		return "", doc, fmt.Errorf("decode doctor %s: %w", snaps[0].ID, err)
	}
	return snaps[0].ID, doc, nil
}

// Update merges the allowed fields into an existing doctor and returns the
// names of the fields written.
func (m *DoctorModel) Update(ctx context.Context, id string, fields map[string]interface{}) ([]string, error) {
	if _, err := m.Get(ctx, id); err != nil {
		if KindOf(err) == KindNotFound {
			return nil, NotFound("Doctor not found")
		}
		return nil, err
	}

	update := make(map[string]interface{})
	for _, name := range doctorUpdatable {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if _, isString := value.(string); !isString {
			return nil, Validation("%s must be a string", name)
		}
		update[name] = value
	}
	if len(update) == 0 {
		return nil, Validation("No valid fields provided")
	}

	if err := m.store.Update(ctx, Doctors, id, update); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, NotFound("Doctor not found")
		}
		return nil, fmt.Errorf("update doctor %s: %w", id, err)
	}
	return sortedKeys(update), nil
}

// Delete removes a doctor. Patients referencing it keep a dangling reference.
func (m *DoctorModel) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		if KindOf(err) == KindNotFound {
			return NotFound("Doctor not found")
		}
		return err
	}
	if err := m.store.Delete(ctx, Doctors, id); err != nil {
		return fmt.Errorf("delete doctor %s: %w", id, err)
	}
	return nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return Validation("missing required fields: %s", strings.Join(missing, ", "))
}

func decodeAll[T any](snaps []docstore.Snapshot) (map[string]T, error) {
	out := make(map[string]T, len(snaps))
	for _, snap := range snaps {
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", snap.ID, err)
		}
		out[snap.ID] = v
	}
	return out, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
