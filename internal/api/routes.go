package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"stealthcompany.com/clinic/internal/metrics"
)

// SetupRoutes configures the router and wraps it with CORS for origins.
func SetupRoutes(h *Handlers, origins []string) http.Handler {
	r := mux.NewRouter()

	r.Use(metrics.MetricsMiddleware)

	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	r.HandleFunc("/doctors", h.CreateDoctor).Methods("POST")
	r.HandleFunc("/doctors", h.ListDoctors).Methods("GET")
	r.HandleFunc("/doctors/by_email", h.DoctorByEmail).Methods("POST")
	r.HandleFunc("/doctors/{id}", h.GetDoctor).Methods("GET")
	r.HandleFunc("/doctors/{id}", h.UpdateDoctor).Methods("PUT")
	r.HandleFunc("/doctors/{id}", h.DeleteDoctor).Methods("DELETE")

	r.HandleFunc("/patients", h.CreatePatient).Methods("POST")
	r.HandleFunc("/patients/by_doctor/{doctorId}", h.PatientsByDoctor).Methods("GET")
	r.HandleFunc("/patients/{id}", h.GetPatient).Methods("GET")
	r.HandleFunc("/patients/{id}", h.UpdatePatient).Methods("PUT")
	r.HandleFunc("/patients/{id}", h.DeletePatient).Methods("DELETE")
	r.HandleFunc("/patients/{id}/mark_paid", h.MarkPatientPaid).Methods("POST")
	r.HandleFunc("/patients/{id}/paid_status", h.PatientPaidStatus).Methods("GET")

	r.HandleFunc("/patients/{id}/riskScores", h.AddRiskScore).Methods("POST")
	r.HandleFunc("/patients/{id}/riskScores", h.ListRiskScores).Methods("GET")
	r.HandleFunc("/patients/{id}/riskScores/latest", h.LatestRiskScore).Methods("GET")

	r.HandleFunc("/reports", h.CreateReport).Methods("POST")
	r.HandleFunc("/reports/by_patient/{first}/{last}", h.ReportsByPatient).Methods("GET")
	r.HandleFunc("/reports/{id}", h.GetReport).Methods("GET")

	r.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	r.HandleFunc("/accounts/login", h.Login).Methods("POST")

	r.HandleFunc("/supportTickets", h.CreateSupportTicket).Methods("POST")
	r.HandleFunc("/supportTickets", h.ListSupportTickets).Methods("GET")
	r.HandleFunc("/supportTickets/{id}", h.DeleteSupportTicket).Methods("DELETE")

	r.HandleFunc("/reviews", h.CreateReview).Methods("POST")
	r.HandleFunc("/reviews", h.ListReviews).Methods("GET")
	r.HandleFunc("/reviews/{id}", h.DeleteReview).Methods("DELETE")

	r.HandleFunc("/export/doctors/{id}/patients", h.ExportDoctorPatients).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}
