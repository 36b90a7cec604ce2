package dal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/docstore"
)

// Report is the stored report document. Patient is persisted as the
// reference path "patients/{id}".
type Report struct {
	Patient      docstore.DocRef `json:"patientId"`
	ReportType   string          `json:"reportType"`
	DateOfReport time.Time       `json:"dateOfReport"`
	Notes        string          `json:"notes"`
}

// ReportView is a report with its patient reference resolved to an id.
type ReportView struct {
	PatientID    string    `json:"patientId"`
	ReportType   string    `json:"reportType"`
	DateOfReport time.Time `json:"dateOfReport"`
	Notes        string    `json:"notes"`
}

// View resolves the patient reference.
func (r Report) View() ReportView {
	return ReportView{
		PatientID:    refID(r.Patient),
		ReportType:   r.ReportType,
		DateOfReport: r.DateOfReport,
		Notes:        r.Notes,
	}
}

// NewReport is the create request for a report.
type NewReport struct {
	PatientFirst string `json:"patient_first"`
	PatientLast  string `json:"patient_last"`
	ReportType   string `json:"report_type"`
	Notes        string `json:"notes"`
}

// ReportModel handles report documents
type ReportModel struct {
	store docstore.Store
	now   func() time.Time
}

// NewReportModel creates a new report model instance
func NewReportModel(store docstore.Store) *ReportModel {
	return &ReportModel{store: store, now: utcNow}
}

// Create upserts the report under its derived id. The patient reference is
// written without checking that the patient exists.
func (m *ReportModel) Create(ctx context.Context, in NewReport) (string, error) {
	if err := requireFields(map[string]string{
		"patient_first": in.PatientFirst,
		"patient_last":  in.PatientLast,
		"report_type":   in.ReportType,
	}); err != nil {
		return "", err
	}

	patientID := PatientID(in.PatientFirst, in.PatientLast)
	id := ReportID(patientID, in.ReportType)
	doc := Report{
		Patient:      Patients.Doc(patientID),
		ReportType:   strings.ToUpper(in.ReportType),
		DateOfReport: m.now(),
		Notes:        in.Notes,
	}
	if err := m.store.Set(ctx, Reports, id, doc); err != nil {
		return "", fmt.Errorf("store report %s: %w", id, err)
	}

	log.Info().
		Str("reportId", id).
		Str("patientId", patientID).
		Msg("Report stored")
	return id, nil
}

// Get returns one report with its patient reference resolved
func (m *ReportModel) Get(ctx context.Context, id string) (ReportView, error) {
	snap, err := m.store.Get(ctx, Reports, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ReportView{}, NotFound("report not found")
		}
		return ReportView{}, fmt.Errorf("get report %s: %w", id, err)
	}

	var doc Report
	if err := snap.DataTo(&doc); err != nil {
		return ReportView{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return doc.View(), nil
}

// ByPatient lists the reports of the patient named first/last, keyed by report id.
func (m *ReportModel) ByPatient(ctx context.Context, first, last string) (map[string]ReportView, error) {
	patientID := PatientID(first, last)
	snaps, err := m.store.Where(ctx, Reports, "patientId", Patients.Doc(patientID), 0)
	if err != nil {
		return nil, fmt.Errorf("list reports of %s: %w", patientID, err)
	}
	docs, err := decodeAll[Report](snaps)
	if err != nil {
		return nil, err
	}

	out := make(map[string]ReportView, len(docs))
	for id, doc := range docs {
		out[id] = doc.View()
	}
	return out, nil
}
