package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/dal"
)

// CreateDoctor upserts a doctor under "dr"+Capitalize(last_name)
func (h *Handlers) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req dal.NewDoctor
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.Doctors.Create(r.Context(), req)
	observe("doctor", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "doctor added",
		"id":      id,
	})
}

// ListDoctors returns every doctor keyed by id
func (h *Handlers) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.models.Doctors.List(r.Context())
	observe("doctor", "list", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

// GetDoctor returns one doctor
func (h *Handlers) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.models.Doctors.Get(r.Context(), pathVar(r, "id"))
	observe("doctor", "get", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

type emailRequest struct {
	Email string `json:"email"`
}

type doctorWithID struct {
	ID string `json:"id"`
	dal.Doctor
}

// DoctorByEmail looks a doctor up by exact email
func (h *Handlers) DoctorByEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, doctor, err := h.models.Doctors.FindByEmail(r.Context(), req.Email)
	observe("doctor", "find_by_email", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doctorWithID{ID: id, Doctor: doctor})
}

// UpdateDoctor merges allowed fields into a doctor
func (h *Handlers) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	var fields map[string]interface{}
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.models.Doctors.Update(r.Context(), id, fields)
	observe("doctor", "update", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().
		Str("doctorId", id).
		Strs("fields", updated).
		Msg("Doctor updated")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Doctor updated",
		"id":            id,
		"updatedFields": updated,
	})
}

// DeleteDoctor removes a doctor without touching its patients
func (h *Handlers) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id := pathVar(r, "id")

	err := h.models.Doctors.Delete(r.Context(), id)
	observe("doctor", "delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Doctor deleted",
		"id":      id,
	})
}
