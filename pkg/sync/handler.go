package sync

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inboxcal/inboxcal/internal/rest"
	"github.com/inboxcal/inboxcal/pkg/account"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location,omitempty"`
	Source      string `json:"source"`
	AccountID   string `json:"accountId"`
	Color       string `json:"color,omitempty"`
}

type EventCreateRequest struct {
	AccountID   string `json:"accountId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location"`
}

type ValidationResultDTO struct {
	Valid bool `json:"valid"`
}

type Handler struct {
	coordinator    Coordinator
	accountService account.Service
}

func NewHandler(coordinator Coordinator, accountService account.Service) *Handler {
	return &Handler{coordinator: coordinator, accountService: accountService}
}

func toEventDTO(event calendar.Event) EventDTO {
	return EventDTO{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Start:       event.Start.Format(time.RFC3339),
		End:         event.End.Format(time.RFC3339),
		Location:    event.Location,
		Source:      string(event.Source),
		AccountID:   event.AccountID,
		Color:       event.Color,
	}
}

// GetEvents runs a full sync pass over every stored account. The response
// is always a valid list; per-account failures only shrink it.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	log.Trace("Starting sync pass")

	calendars, err := h.accountService.ListCalendars(r.Context())
	if err != nil {
		log.Errorf("failed to load calendar accounts: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not load accounts"})
		return
	}
	mailboxes, err := h.accountService.ListMailboxes(r.Context())
	if err != nil {
		log.Errorf("failed to load mailbox accounts: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not load accounts"})
		return
	}

	events := h.coordinator.SyncAll(r.Context(), calendars, mailboxes)

	dtos := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, toEventDTO(event))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req EventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Invalid start time format",
			Details: "Start time must be in RFC3339 format",
		})
		return
	}
	end := start.Add(time.Hour)
	if req.End != "" {
		end, err = time.Parse(time.RFC3339, req.End)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
				Error:   "Invalid end time format",
				Details: "End time must be in RFC3339 format",
			})
			return
		}
	}
	if !end.After(start) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "End time must be after start time"})
		return
	}

	acc, err := h.accountService.GetCalendar(r.Context(), req.AccountID)
	if errors.Is(err, account.ErrAccountNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Account not found"})
		return
	} else if err != nil {
		log.Errorf("failed to load account %s: %v", req.AccountID, err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not load account"})
		return
	}

	created, err := h.coordinator.CreateEvent(r.Context(), acc, calendar.Event{
		Title:       req.Title,
		Description: req.Description,
		Start:       start,
		End:         end,
		Location:    req.Location,
	})
	if errors.Is(err, ErrUnsupportedProvider) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Unsupported provider",
			Details: "Events can only be created on google, outlook, or caldav accounts",
		})
		return
	} else if err != nil {
		log.Errorf("failed to create event on account %s: %v", acc.ID, err)
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not create event"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toEventDTO(*created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ValidateAccount(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	accountId := mux.Vars(r)["accountId"]

	acc, err := h.accountService.GetCalendar(r.Context(), accountId)
	if errors.Is(err, account.ErrAccountNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Account not found"})
		return
	} else if err != nil {
		log.Errorf("failed to load account %s: %v", accountId, err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not load account"})
		return
	}

	valid := h.coordinator.ValidateAccount(r.Context(), acc)
	if err := json.NewEncoder(w).Encode(ValidationResultDTO{Valid: valid}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
