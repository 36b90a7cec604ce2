// Package dal derives clinic entity ids, persists entities as store documents
// and resolves stored references back to bare ids on read.
package dal

import (
	"time"

	"stealthcompany.com/clinic/internal/docstore"
)

// Models bundles every entity model over one store.
type Models struct {
	Doctors        *DoctorModel
	Patients       *PatientModel
	RiskScores     *RiskScoreModel
	Reports        *ReportModel
	Accounts       *AccountModel
	SupportTickets *SupportTicketModel
	Reviews        *ReviewModel
}

// NewModels creates every entity model over store.
func NewModels(store docstore.Store, ordinalLockWait time.Duration) *Models {
	return &Models{
		Doctors:        NewDoctorModel(store),
		Patients:       NewPatientModel(store, ordinalLockWait),
		RiskScores:     NewRiskScoreModel(store, ordinalLockWait),
		Reports:        NewReportModel(store),
		Accounts:       NewAccountModel(store),
		SupportTickets: NewSupportTicketModel(store),
		Reviews:        NewReviewModel(store),
	}
}
