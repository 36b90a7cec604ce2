package dal

import "stealthcompany.com/clinic/internal/docstore"

var (
	Doctors        = docstore.C("doctors")
	Patients       = docstore.C("patients")
	Reports        = docstore.C("reports")
	Accounts       = docstore.C("accounts")
	SupportTickets = docstore.C("supportTickets")
	Reviews        = docstore.C("reviews")
)

const riskScoresName = "riskScores"

// CollectionNames lists every collection a backend has to provision.
var CollectionNames = []string{
	Doctors.Name(),
	Patients.Name(),
	riskScoresName,
	Reports.Name(),
	Accounts.Name(),
	SupportTickets.Name(),
	Reviews.Name(),
}

// RiskScores addresses the risk-score sub-collection of a patient.
func RiskScores(patientID string) docstore.Collection {
	return Patients.Doc(patientID).Collection(riskScoresName)
}

// refID resolves a stored reference to the bare id returned to callers.
func refID(ref docstore.DocRef) string {
	return ref.ID
}
