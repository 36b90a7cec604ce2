package dal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
	"stealthcompany.com/clinic/internal/metrics"
)

const ordinalLockTTL = 10 * time.Second

// riskScoresLock names the lock guarding a patient's risk-score children.
func riskScoresLock(patientID string) string {
	return "riskScores/" + patientID
}

// RiskScore is one assessment stored under patients/{id}/riskScores/{n}.
type RiskScore struct {
	RiskScore      float64   `json:"riskScore"`
	RiskLevel      string    `json:"riskLevel"`
	FamilyHistory  string    `json:"familyHistory"`
	AssessmentDate string    `json:"assessmentDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewRiskScore is the create request for a risk score.
type NewRiskScore struct {
	RiskScore      *float64 `json:"riskScore"`
	RiskLevel      string   `json:"riskLevel"`
	FamilyHistory  string   `json:"familyHistory"`
	AssessmentDate string   `json:"assessmentDate"`
}

// RiskScoreEntry pairs a risk score with its ordinal id.
type RiskScoreEntry struct {
	ID   string    `json:"riskScoreId"`
	Data RiskScore `json:"data"`
}

// RiskScoreModel allocates and reads per-patient risk-score sequences
type RiskScoreModel struct {
	store    docstore.Store
	patients *PatientModel
	lockWait time.Duration
	now      func() time.Time
}

// NewRiskScoreModel creates a new risk score model instance. lockWait bounds
// how long Add waits for a concurrent allocation on the same patient.
func NewRiskScoreModel(store docstore.Store, lockWait time.Duration) *RiskScoreModel {
	return &RiskScoreModel{
		store:    store,
		patients: NewPatientModel(store, lockWait),
		lockWait: lockWait,
		now:      utcNow,
	}
}

func (m *RiskScoreModel) requirePatient(ctx context.Context, patientID string) error {
	ok, err := m.patients.Exists(ctx, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound("patient not found")
	}
	return nil
}

// NextID returns one past the largest numeric child id, 1 when there is none.
// Ids that are not plain decimal numbers are skipped.
func (m *RiskScoreModel) NextID(ctx context.Context, patientID string) (int, error) {
	snaps, err := m.store.Stream(ctx, RiskScores(patientID))
	if err != nil {
		return 0, fmt.Errorf("list risk scores of %s: %w", patientID, err)
	}

	highest := 0
	for _, snap := range snaps {
		if n, ok := parseOrdinal(snap.ID); ok && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// Add stores a new risk score under the next ordinal and returns that id.
// Allocation is serialized per patient by a store lock, and the patient is
// checked again under that lock so a concurrent Delete cannot leave orphans.
func (m *RiskScoreModel) Add(ctx context.Context, patientID string, in NewRiskScore) (string, error) {
	if err := m.requirePatient(ctx, patientID); err != nil {
		return "", err
	}
	if in.RiskScore == nil {
		return "", Validation("missing required fields: riskScore")
	}
	if err := requireFields(map[string]string{
		"riskLevel":      in.RiskLevel,
		"familyHistory":  in.FamilyHistory,
		"assessmentDate": in.AssessmentDate,
	}); err != nil {
		return "", err
	}

	doc := RiskScore{
		RiskScore:      *in.RiskScore,
		RiskLevel:      in.RiskLevel,
		FamilyHistory:  in.FamilyHistory,
		AssessmentDate: in.AssessmentDate,
		CreatedAt:      m.now(),
	}

	var id string
	err := docstore.WithLock(ctx, m.store, riskScoresLock(patientID), ordinalLockTTL, m.lockWait, func() error {
		if err := m.requirePatient(ctx, patientID); err != nil {
			return err
		}
		next, err := m.NextID(ctx, patientID)
		if err != nil {
			return err
		}
		id = strconv.Itoa(next)
		if err := m.store.Set(ctx, RiskScores(patientID), id, doc); err != nil {
			return fmt.Errorf("store risk score %s/%s: %w", patientID, id, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, docstore.ErrLocked) {
			return "", Conflict("risk score allocation for %s is busy, retry", patientID)
		}
		return "", err
	}

	metrics.RecordRiskScoreAllocated()
	log.Info().
		Str("patientId", patientID).
		Str("riskScoreId", id).
		Msg("Risk score stored")
	return id, nil
}

// Latest returns the risk score with the numerically largest id.
func (m *RiskScoreModel) Latest(ctx context.Context, patientID string) (RiskScoreEntry, error) {
	if err := m.requirePatient(ctx, patientID); err != nil {
		return RiskScoreEntry{}, err
	}

	snaps, err := m.store.Stream(ctx, RiskScores(patientID))
	if err != nil {
		return RiskScoreEntry{}, fmt.Errorf("list risk scores of %s: %w", patientID, err)
	}

	highest := -1
	var latest *docstore.Snapshot
	for i := range snaps {
		n, ok := parseOrdinal(snaps[i].ID)
		if ok && n > highest {
			highest = n
			latest = &snaps[i]
		}
	}
	if latest == nil {
		return RiskScoreEntry{}, NotFound("no risk scores found")
	}

	entry := RiskScoreEntry{ID: strconv.Itoa(highest)}
	if err := latest.DataTo(&entry.Data); err != nil {
		return RiskScoreEntry{}, fmt.Errorf("decode risk score %s/%s: %w", patientID, latest.ID, err)
	}
	return entry, nil
}

// List returns the patient's risk scores in ordinal order. Non-numeric ids
// sort after numeric ones.
func (m *RiskScoreModel) List(ctx context.Context, patientID string) ([]RiskScoreEntry, error) {
	if err := m.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}
	return listRiskScores(ctx, m.store, patientID)
}

func listRiskScores(ctx context.Context, store docstore.Store, patientID string) ([]RiskScoreEntry, error) {
	snaps, err := store.Stream(ctx, RiskScores(patientID))
	if err != nil {
		return nil, fmt.Errorf("list risk scores of %s: %w", patientID, err)
	}

	entries := make([]RiskScoreEntry, 0, len(snaps))
	for _, snap := range snaps {
		entry := RiskScoreEntry{ID: snap.ID}
		if err := snap.DataTo(&entry.Data); err != nil {
			return nil, fmt.Errorf("decode risk score %s/%s: %w", patientID, snap.ID, err)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, aok := parseOrdinal(entries[i].ID)
		b, bok := parseOrdinal(entries[j].ID)
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return entries[i].ID < entries[j].ID
		}
	})
	return entries, nil
}
