package dal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
)

// Patient is the stored patient document. Doctor is persisted as the
// reference path "doctors/{id}".
type Patient struct {
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Age       int             `json:"age"`
	Gender    string          `json:"gender"`
	Doctor    docstore.DocRef `json:"doctorId"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"createdAt"`
	Paid      bool            `json:"paid,omitempty"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
}

// PatientView is a patient with its doctor reference resolved to an id.
type PatientView struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Age       int        `json:"age"`
	Gender    string     `json:"gender"`
	DoctorID  string     `json:"doctorId"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
	Paid      bool       `json:"paid,omitempty"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
}

// View resolves the doctor reference.
func (p Patient) View() PatientView {
	return PatientView{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Age:       p.Age,
		Gender:    p.Gender,
		DoctorID:  refID(p.Doctor),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		Paid:      p.Paid,
		PaidAt:    p.PaidAt,
	}
}

// NewPatient is the create request for a patient.
type NewPatient struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       *int   `json:"age"`
	Gender    string `json:"gender"`
	DoctorID  string `json:"doctor_id"`
	Notes     string `json:"notes"`
}

// PaidResult reports the outcome of MarkPaid.
type PaidResult struct {
	AlreadyPaid bool
}

// PatientModel handles patient documents and their risk-score children
type PatientModel struct {
	store    docstore.Store
	lockWait time.Duration
	now      func() time.Time
}

// NewPatientModel creates a new patient model instance. lockWait bounds how
// long Delete waits for a risk-score allocation on the same patient.
func NewPatientModel(store docstore.Store, lockWait time.Duration) *PatientModel {
	return &PatientModel{store: store, lockWait: lockWait, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Create upserts the patient under its derived id. The doctor reference is
// written without checking that the doctor exists.
func (m *PatientModel) Create(ctx context.Context, in NewPatient) (string, error) {
	if err := requireFields(map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"gender":     in.Gender,
		"doctor_id":  in.DoctorID,
	}); err != nil {
		return "", err
	}
	if in.Age == nil {
		return "", Validation("missing required fields: age")
	}
	if *in.Age < 0 {
		return "", Validation("age must not be negative")
	}

	id := PatientID(in.FirstName, in.LastName)
	doc := Patient{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Age:       *in.Age,
		Gender:    in.Gender,
		Doctor:    Doctors.Doc(in.DoctorID),
		Notes:     in.Notes,
		CreatedAt: m.now(),
	}
	if err := m.store.Set(ctx, Patients, id, doc); err != nil {
		return "", fmt.Errorf("store patient %s: %w", id, err)
	}

	log.Info().
		Str("patientId", id).
		Str("doctorId", in.DoctorID).
		Msg("Patient stored")
	return id, nil
}

func (m *PatientModel) get(ctx context.Context, id, notFound string) (Patient, error) {
	var doc Patient
	snap, err := m.store.Get(ctx, Patients, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return doc, NotFound("%s", notFound)
		}
		return doc, fmt.Errorf("get patient %s: %w", id, err)
	}
	if err := snap.DataTo(&doc); err != nil {
		return doc, fmt.Errorf("decode patient %s: %w", id, err)
	}
	return doc, nil
}

// Get returns one patient with its doctor reference resolved
func (m *PatientModel) Get(ctx context.Context, id string) (PatientView, error) {
	doc, err := m.get(ctx, id, "patient not found")
	if err != nil {
		return PatientView{}, err
	}
	return doc.View(), nil
}

// Exists reports whether the patient document is present.
func (m *PatientModel) Exists(ctx context.Context, id string) (bool, error) {
	_, err := m.store.Get(ctx, Patients, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get patient %s: %w", id, err)
	}
	return true, nil
}

// ByDoctor lists the patients referencing doctorID, keyed by patient id.
func (m *PatientModel) ByDoctor(ctx context.Context, doctorID string) (map[string]PatientView, error) {
	snaps, err := m.store.Where(ctx, Patients, "doctorId", Doctors.Doc(doctorID), 0)
	if err != nil {
		return nil, fmt.Errorf("list patients of %s: %w", doctorID, err)
	}
	docs, err := decodeAll[Patient](snaps)
	if err != nil {
		return nil, err
	}

	out := make(map[string]PatientView, len(docs))
	for id, doc := range docs {
		out[id] = doc.View()
	}
	return out, nil
}

// Update merges the allowed fields into an existing patient. A "doctor_id"
// entry reassigns the doctor reference. Returns the stored field names.
func (m *PatientModel) Update(ctx context.Context, id string, fields map[string]interface{}) ([]string, error) {
	if _, err := m.get(ctx, id, "Patient not found"); err != nil {
		return nil, err
	}

	update := make(map[string]interface{})
	for _, name := range []string{"firstName", "lastName", "gender", "notes"} {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if _, isString := value.(string); !isString {
			return nil, Validation("%s must be a string", name)
		}
		update[name] = value
	}
	if value, ok := fields["age"]; ok {
		age, isNumber := value.(float64)
		if !isNumber || age < 0 || age != float64(int(age)) {
			return nil, Validation("age must be a non-negative integer")
		}
		update["age"] = int(age)
	}
	if value, ok := fields["doctor_id"]; ok {
		doctorID, isString := value.(string)
		if !isString || doctorID == "" {
			return nil, Validation("doctor_id must be a non-empty string")
		}
		update["doctorId"] = Doctors.Doc(doctorID)
	}
	if len(update) == 0 {
		return nil, Validation("No valid fields provided")
	}

	if err := m.store.Update(ctx, Patients, id, update); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, NotFound("Patient not found")
		}
		return nil, fmt.Errorf("update patient %s: %w", id, err)
	}
	return sortedKeys(update), nil
}

// Delete removes the patient's risk scores and then the patient. Reports
// referencing the patient are left in place. It holds the same per-patient
// lock as RiskScoreModel.Add so no score is written under a deleted patient.
func (m *PatientModel) Delete(ctx context.Context, id string) error {
	if _, err := m.get(ctx, id, "Patient not found"); err != nil {
		return err
	}

	deleted := 0
	err := docstore.WithLock(ctx, m.store, riskScoresLock(id), ordinalLockTTL, m.lockWait, func() error {
		scores := RiskScores(id)
		snaps, err := m.store.Stream(ctx, scores)
		if err != nil {
			return fmt.Errorf("list risk scores of %s: %w", id, err)
		}
		for _, snap := range snaps {
			if err := m.store.Delete(ctx, scores, snap.ID); err != nil {
				return fmt.Errorf("delete risk score %s/%s: %w", id, snap.ID, err)
			}
			deleted++
		}

		if err := m.store.Delete(ctx, Patients, id); err != nil {
			return fmt.Errorf("delete patient %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, docstore.ErrLocked) {
			return Conflict("patient %s is busy, retry", id)
		}
		return err
	}

	log.Info().
		Str("patientId", id).
		Int("riskScoresDeleted", deleted).
		Msg("Patient deleted")
	return nil
}

// MarkPaid sets the paid flag and timestamp unless the patient already paid.
func (m *PatientModel) MarkPaid(ctx context.Context, id string) (PaidResult, error) {
	doc, err := m.get(ctx, id, "Patient not found")
	if err != nil {
		return PaidResult{}, err
	}
	if doc.Paid {
		return PaidResult{AlreadyPaid: true}, nil
	}

	err = m.store.Update(ctx, Patients, id, map[string]interface{}{
		"paid":   true,
		"paidAt": m.now(),
	})
	if err != nil {
		return PaidResult{}, fmt.Errorf("mark patient %s paid: %w", id, err)
	}
	return PaidResult{}, nil
}

// PaidStatus returns the paid flag, false when never set.
func (m *PatientModel) PaidStatus(ctx context.Context, id string) (bool, error) {
	doc, err := m.get(ctx, id, "Patient not found")
	if err != nil {
		return false, err
	}
	return doc.Paid, nil
}
