package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"stealthcompany.com/clinic/internal/export"
)

// ExportDoctorPatients streams a doctor's patients and risk scores as an
// attachment, CSV unless ?format=xlsx.
func (h *Handlers) ExportDoctorPatients(w http.ResponseWriter, r *http.Request) {
	doctorID := pathVar(r, "id")

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := h.exporter.Rows(r.Context(), doctorID)
	observe("export", string(format), err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", format.FileName(doctorID)))
	w.WriteHeader(http.StatusOK)

	if err := export.Write(w, format, rows); err != nil {
		log.Error().
			Err(err).
			Str("doctorId", doctorID).
			Msg("Failed to write export")
	}
}
