package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/inboxcal/inboxcal/internal/rest"
	log "github.com/sirupsen/logrus"
)

type CalendarDTO struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	ServerURL   string `json:"serverUrl,omitempty"`
	Enabled     bool   `json:"enabled"`
}

type CalendarCreateRequest struct {
	Provider     string `json:"provider"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ServerURL    string `json:"serverUrl"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Enabled      *bool  `json:"enabled"`
}

type MailboxDTO struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Enabled  bool   `json:"enabled"`
}

type MailboxCreateRequest struct {
	Email    string `json:"email"`
	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	TLS      *bool  `json:"tls"`
	Enabled  *bool  `json:"enabled"`
}

type EnabledUpdateRequest struct {
	Enabled bool `json:"enabled"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func toCalendarDTO(acc Calendar) CalendarDTO {
	return CalendarDTO{
		ID:          acc.ID,
		Provider:    string(acc.Provider),
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		ServerURL:   acc.ServerURL,
		Enabled:     acc.Enabled,
	}
}

func toMailboxDTO(acc Mailbox) MailboxDTO {
	return MailboxDTO{
		ID:       acc.ID,
		Email:    acc.Email,
		Protocol: acc.Protocol,
		Host:     acc.Host,
		Port:     acc.Port,
		Enabled:  acc.Enabled,
	}
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	accounts, err := h.service.ListCalendars(r.Context())
	if err != nil {
		log.Errorf("failed to list calendar accounts: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not list calendar accounts"})
		return
	}

	dtos := make([]CalendarDTO, 0, len(accounts))
	for _, acc := range accounts {
		dtos = append(dtos, toCalendarDTO(acc))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req CalendarCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	created, err := h.service.AddCalendar(r.Context(), Calendar{
		Provider:     Provider(req.Provider),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ServerURL:    req.ServerURL,
		Username:     req.Username,
		Password:     req.Password,
		Enabled:      enabled,
	})
	if errors.Is(err, ErrUnknownProvider) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error:   "Unknown calendar provider",
			Details: "Supported providers: google, outlook, caldav",
		})
		return
	} else if err != nil {
		log.Errorf("failed to create calendar account: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not create calendar account"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toCalendarDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetCalendarEnabled(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, h.service.SetCalendarEnabled)
}

func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteCalendar)
}

func (h *Handler) ListMailboxes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	accounts, err := h.service.ListMailboxes(r.Context())
	if err != nil {
		log.Errorf("failed to list mailbox accounts: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not list mailbox accounts"})
		return
	}

	dtos := make([]MailboxDTO, 0, len(accounts))
	for _, acc := range accounts {
		dtos = append(dtos, toMailboxDTO(acc))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) CreateMailbox(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req MailboxCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	tls := true
	if req.TLS != nil {
		tls = *req.TLS
	}
	created, err := h.service.AddMailbox(r.Context(), Mailbox{
		Email:    req.Email,
		Protocol: req.Protocol,
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
		TLS:      tls,
		Enabled:  enabled,
	})
	if err != nil {
		log.Errorf("failed to create mailbox account: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not create mailbox account"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toMailboxDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) SetMailboxEnabled(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, h.service.SetMailboxEnabled)
}

func (h *Handler) DeleteMailbox(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteMailbox)
}

func (h *Handler) setEnabled(w http.ResponseWriter, r *http.Request,
	update func(ctx context.Context, id string, enabled bool) error) {
	w.Header().Set("Content-Type", "application/json")
	accountId := mux.Vars(r)["accountId"]

	var req EnabledUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid request body format"})
		return
	}

	err := update(r.Context(), accountId, req.Enabled)
	if errors.Is(err, ErrAccountNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Account not found"})
		return
	} else if err != nil {
		log.Errorf("failed to update account %s: %v", accountId, err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not update account"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request,
	remove func(ctx context.Context, id string) error) {
	w.Header().Set("Content-Type", "application/json")
	accountId := mux.Vars(r)["accountId"]

	err := remove(r.Context(), accountId)
	if errors.Is(err, ErrAccountNotFound) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Account not found"})
		return
	} else if err != nil {
		log.Errorf("failed to delete account %s: %v", accountId, err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Could not delete account"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
