package dal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"smith", "Smith"},
		{"SMITH", "Smith"},
		{"mcDonald", "Mcdonald"},
		{"s", "S"},
		{"élodie", "Élodie"},
		{"1abc", "1abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Capitalize(tt.in), "Capitalize(%q)", tt.in)
	}
}

func TestDerivedIDs(t *testing.T) {
	assert.Equal(t, "drSmith", DoctorID("smith"))
	assert.Equal(t, "drSmith", DoctorID("SMITH"))
	assert.Equal(t, "AnnLee", PatientID("ann", "lee"))
	assert.Equal(t, "AnnLee", PatientID("ANN", "LEE"))
	assert.Equal(t, "AnnLeeMRI", ReportID(PatientID("ann", "lee"), "mri"))
	assert.Equal(t, "AnnLeeXRAY", ReportID("AnnLee", "xRay"))

	// Deterministic across calls.
	for i := 0; i < 3; i++ {
		assert.Equal(t, PatientID("bob", "ray"), PatientID("bob", "ray"))
	}
}

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		id   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"10", 10, true},
		{"007", 7, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+2", 0, false},
		{" 3", 0, false},
		{"abc", 0, false},
		{"1a", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseOrdinal(tt.id)
		assert.Equal(t, tt.ok, ok, "parseOrdinal(%q)", tt.id)
		assert.Equal(t, tt.want, got, "parseOrdinal(%q)", tt.id)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("x")))
	assert.Equal(t, KindValidation, KindOf(Validation("x")))
	assert.Equal(t, KindConflict, KindOf(Conflict("x")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("x")))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.Equal(t, "validation", KindValidation.String())
}
