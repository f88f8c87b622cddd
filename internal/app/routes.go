package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Events
	r.HandleFunc("/api/events", deps.SyncHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/events", deps.SyncHandler.CreateEvent).Methods("POST")

	// Calendar accounts
	r.HandleFunc("/api/account/calendar", deps.AccountHandler.ListCalendars).Methods("GET")
	r.HandleFunc("/api/account/calendar", deps.AccountHandler.CreateCalendar).Methods("POST")
	r.HandleFunc("/api/account/calendar/{accountId}/enabled", deps.AccountHandler.SetCalendarEnabled).Methods("PATCH")
	r.HandleFunc("/api/account/calendar/{accountId}", deps.AccountHandler.DeleteCalendar).Methods("DELETE")
	r.HandleFunc("/api/account/calendar/{accountId}/validation", deps.SyncHandler.ValidateAccount).Methods("POST")

	// Mailbox accounts
	r.HandleFunc("/api/account/mailbox", deps.AccountHandler.ListMailboxes).Methods("GET")
	r.HandleFunc("/api/account/mailbox", deps.AccountHandler.CreateMailbox).Methods("POST")
	r.HandleFunc("/api/account/mailbox/{accountId}/enabled", deps.AccountHandler.SetMailboxEnabled).Methods("PATCH")
	r.HandleFunc("/api/account/mailbox/{accountId}", deps.AccountHandler.DeleteMailbox).Methods("DELETE")
}
