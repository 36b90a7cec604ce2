package api

import (
	"net/http"

	"stealthcompany.com/clinic/internal/dal"
)

// CreateReport upserts a report for the named patient
func (h *Handlers) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req dal.NewReport
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.Reports.Create(r.Context(), req)
	observe("report", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "report added",
		"id":      id,
	})
}

// GetReport returns one report with patientId as a bare id
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.models.Reports.Get(r.Context(), pathVar(r, "id"))
	observe("report", "get", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ReportsByPatient lists a patient's reports keyed by id
func (h *Handlers) ReportsByPatient(w http.ResponseWriter, r *http.Request) {
	reports, err := h.models.Reports.ByPatient(r.Context(), pathVar(r, "first"), pathVar(r, "last"))
	observe("report", "by_patient", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}
