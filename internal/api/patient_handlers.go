package api

import (
	"net/http"

	"stealthcompany.com/clinic/internal/dal"
)

// CreatePatient upserts a patient referencing doctor_id
func (h *Handlers) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req dal.NewPatient
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.Patients.Create(r.Context(), req)
	observe("patient", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "patient added",
		"id":      id,
	})
}

// GetPatient returns one patient with doctorId as a bare id
func (h *Handlers) GetPatient(w http.ResponseWriter, r *http.Request) {
	patient, err := h.models.Patients.Get(r.Context(), pathVar(r, "id"))
	observe("patient", "get", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// PatientsByDoctor lists a doctor's patients keyed by id
func (h *Handlers) PatientsByDoctor(w http.ResponseWriter, r *http.Request) {
	patients, err := h.models.Patients.ByDoctor(r.Context(), pathVar(r, "doctorId"))
	observe("patient", "by_doctor", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// UpdatePatient merges allowed fields and an optional doctor_id reassignment
func (h *Handlers) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	var fields map[string]interface{}
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.models.Patients.Update(r.Context(), id, fields)
	observe("patient", "update", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Patient updated",
		"id":            id,
		"updatedFields": updated,
	})
}

// DeletePatient removes a patient and its risk scores
func (h *Handlers) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	err := h.models.Patients.Delete(r.Context(), id)
	observe("patient", "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Patient deleted",
		"id":      id,
	})
}

// MarkPatientPaid sets the paid flag once
func (h *Handlers) MarkPatientPaid(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	res, err := h.models.Patients.MarkPaid(r.Context(), id)
	observe("patient", "mark_paid", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "Patient successfully paid"
	if res.AlreadyPaid {
		message = "Patient already paid"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   message,
		"patientId": id,
	})
}

// PatientPaidStatus reports the paid flag
func (h *Handlers) PatientPaidStatus(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	paid, err := h.models.Patients.PaidStatus(r.Context(), id)
	observe("patient", "paid_status", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patientId": id,
		"paid":      paid,
	})
}
