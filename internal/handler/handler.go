// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/Shivanand-hulikatti/event-registration-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stable error codes of the JSON error envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodePastEvent         = "PAST_EVENT"
	CodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeDatabase          = "DATABASE_ERROR"
)

const maxBodyBytes = 1 << 20

// EventAPI is the service surface the handlers drive. *service.EventService
// implements it.
type EventAPI interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	GetEventWithRoster(ctx context.Context, eventID string) (*model.EventDetail, error)
	ListUpcoming(ctx context.Context, limit, offset int) (*model.UpcomingPage, error)
	GetStats(ctx context.Context, eventID string) (*model.EventStats, error)
	Register(ctx context.Context, eventID, userID string) (*model.RegistrationResult, error)
	Cancel(ctx context.Context, eventID, userID string) (*model.CancelResult, error)
}

// EventHandler holds all HTTP handlers for the event registration API.
type EventHandler struct {
	svc      EventAPI
	validate *validator.Validate
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventAPI) *EventHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &EventHandler{svc: svc, validate: validate}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: model.ErrorBody{Code: code, Message: msg}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.ValidationError{Message: "request body is required"}
		}
		return model.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	if dec.More() {
		return model.ValidationError{Message: "request body must contain a single JSON object"}
	}
	return nil
}

// validateStruct runs the struct tags and reports the first failure.
func (h *EventHandler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return model.ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	return model.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "uuid":
		return name + " must be a valid UUID"
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", name)
}

// eventID reads and checks the {id} path parameter.
func eventID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := uuid.Validate(id); err != nil {
		return "", model.ValidationError{Field: "id", Message: "event id must be a valid UUID"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ValidationError{Field: name, Message: name + " must be an integer"}
	}
	return v, nil
}

// writeServiceError maps the closed error set onto status codes. Anything
// outside the set is logged and reported without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   model.NotFoundError
		pastEvent  model.PastEventError
		capacity   model.CapacityExceededError
		already    model.AlreadyRegisteredError
		validation model.ValidationError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, CodeValidation, validation.Message)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, CodeNotFound, notFound.Error())
	case errors.As(err, &pastEvent):
		writeError(w, http.StatusUnprocessableEntity, CodePastEvent, pastEvent.Error())
	case errors.As(err, &capacity):
		writeError(w, http.StatusUnprocessableEntity, CodeCapacityExceeded, capacity.Error())
	case errors.As(err, &already):
		writeError(w, http.StatusConflict, CodeAlreadyRegistered, already.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, CodeDatabase, "an internal error occurred")
	}
}

// logOperation records a business operation with the request-scoped logger.
// Every handler logs the attempt once its input is valid; mutations also log
// their result.
func logOperation(r *http.Request, operation string) *zerolog.Event {
	return zerolog.Ctx(r.Context()).Info().
		Str("operation", operation).
		Str("client_ip", clientIP(r))
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "create_event").Str("title", req.Title).Int("capacity", req.Capacity).Msg("creating event")
	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "create_event").Str("event_id", event.ID).Msg("event created")
	writeJSON(w, http.StatusCreated, model.CreateEventResponse{
		EventID: event.ID,
		Message: "Event created successfully",
	})
}

// ListUpcoming handles GET /api/events/upcoming?limit=&offset=
func (h *EventHandler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "get_upcoming_events").Int("limit", limit).Int("offset", offset).Msg("listing upcoming events")
	page, err := h.svc.ListUpcoming(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetEvent handles GET /api/events/{id}
// Returns the event together with its roster.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "get_event_details").Str("event_id", id).Msg("fetching event details")
	detail, err := h.svc.GetEventWithRoster(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Register handles POST /api/events/{id}/register
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.registrationRequest(w, r)
	if !ok {
		return
	}

	logOperation(r, "register").Str("event_id", id).Str("user_id", req.UserID).Msg("registering user")
	result, err := h.svc.Register(r.Context(), id, req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "register").
		Str("event_id", id).
		Str("user_id", req.UserID).
		Int("remaining_capacity", result.RemainingCapacity).
		Msg("user registered")
	writeJSON(w, http.StatusCreated, result)
}

// Cancel handles DELETE /api/events/{id}/register
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.registrationRequest(w, r)
	if !ok {
		return
	}

	logOperation(r, "cancel_registration").Str("event_id", id).Str("user_id", req.UserID).Msg("cancelling registration")
	result, err := h.svc.Cancel(r.Context(), id, req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "cancel_registration").
		Str("event_id", id).
		Str("user_id", req.UserID).
		Msg("registration cancelled")
	writeJSON(w, http.StatusOK, result)
}

func (h *EventHandler) registrationRequest(w http.ResponseWriter, r *http.Request) (string, model.RegisterRequest, bool) {
	var req model.RegisterRequest
	id, err := eventID(r)
	if err == nil {
		err = decodeJSON(w, r, &req)
	}
	if err == nil {
		err = h.validateStruct(req)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return "", req, false
	}
	return id, req, true
}

// GetStats handles GET /api/events/{id}/stats
func (h *EventHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logOperation(r, "get_event_stats").Str("event_id", id).Msg("fetching event stats")
	stats, err := h.svc.GetStats(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
