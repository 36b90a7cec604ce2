package api

import (
	"net/http"

	"stealthcompany.com/clinic/internal/dal"
)

// AddRiskScore stores a risk score under the patient's next ordinal
func (h *Handlers) AddRiskScore(w http.ResponseWriter, r *http.Request) {
	patientID := pathVar(r, "id")

	var req dal.NewRiskScore
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.RiskScores.Add(r.Context(), patientID, req)
	observe("risk_score", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":     "risk score added",
		"patientId":   patientID,
		"riskScoreId": id,
	})
}

// ListRiskScores returns the patient's risk scores in ordinal order
func (h *Handlers) ListRiskScores(w http.ResponseWriter, r *http.Request) {
	patientID := pathVar(r, "id")

	scores, err := h.models.RiskScores.List(r.Context(), patientID)
	observe("risk_score", "list", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patientId":  patientID,
		"riskScores": scores,
	})
}

// LatestRiskScore returns the risk score with the highest ordinal
func (h *Handlers) LatestRiskScore(w http.ResponseWriter, r *http.Request) {
	patientID := pathVar(r, "id")

	latest, err := h.models.RiskScores.Latest(r.Context(), patientID)
	observe("risk_score", "latest", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patientId":   patientID,
		"riskScoreId": latest.ID,
		"data":        latest.Data,
	})
}
