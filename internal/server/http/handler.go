package internalhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lomoval/otus-golang/event_planner/internal/app"
	"github.com/lomoval/otus-golang/event_planner/internal/storage"
	log "github.com/sirupsen/logrus"
)

const (
	errInternalServerError = "Internal server error"
	errCredentialsRequired = "Username and password required."
	errUserExists          = "User already exists."
	errInvalidCredentials  = "Invalid credentials"
	errEventFieldsRequired = "Name, date, and time are required."
	errInvalidDateTime     = "Invalid date or time."
	errInvalidBody         = "Invalid request body."
)

const maxBodySize = 1 << 20

type handler struct {
	app *app.App
}

type credentials struct {
	Username looseString `json:"username"`
	Password looseString `json:"password"`
}

// looseString accepts any JSON value. null, false, 0 and "" decode to an empty
// string; other non-string values keep their JSON text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = looseString(v)
	case bool:
		*s = ""
		if v {
			*s = "true"
		}
	case float64:
		*s = ""
		if v != 0 {
			*s = looseString(bytes.TrimSpace(data))
		}
	default:
		*s = looseString(bytes.TrimSpace(data))
	}
	return nil
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type eventResponse struct {
	Message string        `json:"message"`
	Event   storage.Event `json:"event"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	u, err := h.app.Register(r.Context(), string(req.Username), string(req.Password))
	switch {
	case errors.Is(err, app.ErrValidation):
		writeText(w, http.StatusBadRequest, errCredentialsRequired)
	case errors.Is(err, app.ErrConflict):
		writeText(w, http.StatusBadRequest, errUserExists)
	case err != nil:
		log.Errorf("failed to register user: %v", err)
		writeText(w, http.StatusInternalServerError, errInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully", UserID: u.ID})
	}
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	u, err := h.app.Login(r.Context(), string(req.Username), string(req.Password))
	switch {
	case errors.Is(err, app.ErrAuth):
		writeText(w, http.StatusUnauthorized, errInvalidCredentials)
	case err != nil:
		log.Errorf("failed to login: %v", err)
		writeText(w, http.StatusInternalServerError, errInternalServerError)
	default:
		writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: u.ID})
	}
}

func (h *handler) createEvent(w http.ResponseWriter, r *http.Request) {
	owner, _ := userFromContext(r.Context())
	var req app.EventInput
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	e, err := h.app.CreateEvent(r.Context(), owner, req)
	switch {
	case errors.Is(err, app.ErrValidation):
		if req.Name == "" || req.Date == "" || req.Time == "" {
			writeText(w, http.StatusBadRequest, errEventFieldsRequired)
			return
		}
		writeText(w, http.StatusBadRequest, errInvalidDateTime)
	case err != nil:
		log.Errorf("failed to create event: %v", err)
		writeText(w, http.StatusInternalServerError, errInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, eventResponse{Message: "Event created", Event: e})
	}
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	owner, _ := userFromContext(r.Context())
	events, err := h.app.ListEvents(r.Context(), owner, r.URL.Query().Get("sortBy"))
	if err != nil {
		log.Errorf("failed to list events: %v", err)
		writeText(w, http.StatusInternalServerError, errInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// decodeJSON treats an empty body or a well-formed non-object body as an empty object.
func decodeJSON(r *http.Request, dst interface{}) error {
	var raw json.RawMessage
	err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize)).Decode(&raw)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}
