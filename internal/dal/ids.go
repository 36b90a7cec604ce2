package dal

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first character and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// DoctorID derives a doctor's document id from the last name: "smith" -> "drSmith".
func DoctorID(lastName string) string {
	return "dr" + Capitalize(lastName)
}

// PatientID derives a patient's document id: ("ann", "lee") -> "AnnLee".
// Patients sharing a normalized name share an id.
func PatientID(firstName, lastName string) string {
	return Capitalize(firstName) + Capitalize(lastName)
}

// ReportID derives a report's document id: ("AnnLee", "mri") -> "AnnLeeMRI".
func ReportID(patientID, reportType string) string {
	return patientID + strings.ToUpper(reportType)
}

// parseOrdinal accepts ids made only of ASCII digits.
func parseOrdinal(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return n, true
}
