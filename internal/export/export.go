// Package export renders a doctor's patients and their risk-score history
// as CSV or XLSX, one row per (patient, risk score) pair.
package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/dal"
)

// Header is the fixed column order of every export.
var Header = []string{
	"doctorId",
	"patientId",
	"firstName",
	"lastName",
	"age",
	"gender",
	"riskScoreId",
	"riskScore",
	"riskLevel",
	"familyHistory",
	"lastAssessmentDate",
	"createdAt",
}

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format, CSV when empty.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCSV):
		return FormatCSV, nil
	case string(FormatXLSX):
		return FormatXLSX, nil
	default:
		return "", dal.Validation("format must be csv or xlsx")
	}
}

// FileName is the attachment name for doctorID's export.
func (f Format) FileName(doctorID string) string {
	return fmt.Sprintf("%s_patients_export.%s", doctorID, f)
}

// ContentType is the MIME type of the encoded export.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Row is one exported (patient, risk score) pair.
type Row struct {
	DoctorID           string
	PatientID          string
	FirstName          string
	LastName           string
	Age                int
	Gender             string
	RiskScoreID        string
	RiskScore          float64
	RiskLevel          string
	FamilyHistory      string
	LastAssessmentDate string
	CreatedAt          time.Time
}

// Strings returns the row as text cells in Header order.
func (r Row) Strings() []string {
	createdAt := ""
	if !r.CreatedAt.IsZero() {
		createdAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.DoctorID,
		r.PatientID,
		r.FirstName,
		r.LastName,
		strconv.Itoa(r.Age),
		r.Gender,
		r.RiskScoreID,
		strconv.FormatFloat(r.RiskScore, 'f', -1, 64),
		r.RiskLevel,
		r.FamilyHistory,
		r.LastAssessmentDate,
		createdAt,
	}
}

// Exporter collects export rows from the entity models
type Exporter struct {
	doctors    *dal.DoctorModel
	patients   *dal.PatientModel
	riskScores *dal.RiskScoreModel
}

// NewExporter creates a new exporter over models
func NewExporter(models *dal.Models) *Exporter {
	return &Exporter{
		doctors:    models.Doctors,
		patients:   models.Patients,
		riskScores: models.RiskScores,
	}
}

// Rows returns the export rows for doctorID ordered by patient id and then
// risk-score ordinal. Patients without risk scores produce no rows.
func (e *Exporter) Rows(ctx context.Context, doctorID string) ([]Row, error) {
	if _, err := e.doctors.Get(ctx, doctorID); err != nil {
		if dal.KindOf(err) == dal.KindNotFound {
			return nil, dal.NotFound("Doctor not found")
		}
		return nil, err
	}

	patients, err := e.patients.ByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(patients))
	for id := range patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var rows []Row
	for _, patientID := range ids {
		patient := patients[patientID]
		scores, err := e.riskScores.List(ctx, patientID)
		if err != nil {
			if dal.KindOf(err) == dal.KindNotFound {
				// Deleted between the listing and this read.
				continue
			}
			return nil, err
		}
		for _, score := range scores {
			rows = append(rows, Row{
				DoctorID:           doctorID,
				PatientID:          patientID,
				FirstName:          patient.FirstName,
				LastName:           patient.LastName,
				Age:                patient.Age,
				Gender:             patient.Gender,
				RiskScoreID:        score.ID,
				RiskScore:          score.Data.RiskScore,
				RiskLevel:          score.Data.RiskLevel,
				FamilyHistory:      score.Data.FamilyHistory,
				LastAssessmentDate: score.Data.AssessmentDate,
				CreatedAt:          score.Data.CreatedAt,
			})
		}
	}

	log.Debug().
		Str("doctorId", doctorID).
		Int("patients", len(ids)).
		Int("rows", len(rows)).
		Msg("Export rows collected")
	return rows, nil
}

// Write encodes rows in format to w.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return WriteCSV(w, rows)
	}
}
