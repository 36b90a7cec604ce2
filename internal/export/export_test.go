package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/redisstore/redistest"
)

func newSeededExporter(t *testing.T) *Exporter {
	t.Helper()
	ctx := context.Background()
	store, _ := redistest.NewStore(t)
	models := dal.NewModels(store, time.Second)

	_, err := models.Doctors.Create(ctx, dal.NewDoctor{
		FirstName: "john", LastName: "smith", Email: "s@clinic.test", Address: "a", Phone: "p",
	})
	require.NoError(t, err)

	age := 42
	for _, name := range [][2]string{{"ann", "lee"}, {"bob", "ray"}} {
		_, err := models.Patients.Create(ctx, dal.NewPatient{
			FirstName: name[0], LastName: name[1], Age: &age, Gender: "F", DoctorID: "drSmith",
		})
		require.NoError(t, err)
	}
	other := 30
	_, err = models.Patients.Create(ctx, dal.NewPatient{
		FirstName: "cy", LastName: "wu", Age: &other, Gender: "M", DoctorID: "drJones",
	})
	require.NoError(t, err)

	for _, patient := range []string{"AnnLee", "AnnLee", "CyWu"} {
		score := 12.5
		_, err := models.RiskScores.Add(ctx, patient, dal.NewRiskScore{
			RiskScore: &score, RiskLevel: "medium", FamilyHistory: "diabetes", AssessmentDate: "2024-03-01",
		})
		require.NoError(t, err)
	}

	return NewExporter(models)
}

func TestRows(t *testing.T) {
	ctx := context.Background()
	e := newSeededExporter(t)

	rows, err := e.Rows(ctx, "drSmith")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "AnnLee", rows[0].PatientID)
	assert.Equal(t, "1", rows[0].RiskScoreID)
	assert.Equal(t, "2", rows[1].RiskScoreID)
	assert.Equal(t, "2024-03-01", rows[0].LastAssessmentDate)
	assert.Equal(t, "ann", rows[0].FirstName)

	_, err = e.Rows(ctx, "drNobody")
	assert.Equal(t, dal.KindNotFound, dal.KindOf(err))
}

func TestWriteCSV(t *testing.T) {
	ctx := context.Background()
	e := newSeededExporter(t)
	rows, err := e.Rows(ctx, "drSmith")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Len(t, records[0], 12)
	assert.Equal(t, []string{"drSmith", "AnnLee", "ann", "lee", "42", "F", "1", "12.5", "medium", "diabetes", "2024-03-01"}, records[1][:11])
	assert.NotEmpty(t, records[1][11])
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "doctorId,patientId,firstName,lastName,age,gender,riskScoreId,riskScore,riskLevel,familyHistory,lastAssessmentDate,createdAt\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	rows := []Row{{
		DoctorID: "drSmith", PatientID: "AnnLee", FirstName: "ann", LastName: "lee", Age: 42,
		Gender: "F", RiskScoreID: "1", RiskScore: 3, RiskLevel: "low", FamilyHistory: "none",
		LastAssessmentDate: "2024-03-01", CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Header, got[0])
	assert.Equal(t, "AnnLee", got[1][1])
	assert.Equal(t, "42", got[1][4])
	assert.Equal(t, "2024-03-01T10:00:00Z", got[1][11])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatCSV},
		{in: "csv", want: FormatCSV},
		{in: "XLSX", want: FormatXLSX},
		{in: "pdf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Equal(t, dal.KindValidation, dal.KindOf(err))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "drSmith_patients_export.csv", FormatCSV.FileName("drSmith"))
	assert.Equal(t, "drSmith_patients_export.xlsx", FormatXLSX.FileName("drSmith"))
}
