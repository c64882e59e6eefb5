// Package handlers provides the HTTP endpoints of the dose reference API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/dosing"
	"github.com/giygas/anesdose/interfaces"
	"github.com/giygas/anesdose/logging"
	"github.com/giygas/anesdose/metrics"
	"github.com/giygas/anesdose/render"
	"github.com/giygas/anesdose/validation"
	"github.com/go-chi/chi/v5"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store      interfaces.CatalogStore
	calculator interfaces.DoseCalculator
	validator  interfaces.CatalogValidator
	health     interfaces.HealthChecker
	router     chi.Router
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	store interfaces.CatalogStore,
	calculator interfaces.DoseCalculator,
	validator interfaces.CatalogValidator,
	health interfaces.HealthChecker,
) *HTTPHandlerImpl {
	h := &HTTPHandlerImpl{
		store:      store,
		calculator: calculator,
		validator:  validator,
		health:     health,
	}
	router := chi.NewRouter()
	RegisterRoutes(router, h)
	h.router = router
	return h
}

// RegisterRoutes mounts every endpoint of h on r.
func RegisterRoutes(r chi.Router, h interfaces.HTTPHandler) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/doses", h.CalculateDoses)
		r.Get("/doses", h.CalculateDosesQuery)
		r.Get("/doses/{category}", h.CalculateCategory)
		r.Get("/catalog", h.ServeCatalog)
		r.Get("/catalog/{category}", h.ServeCatalogCategory)
		r.Get("/drugs/{name}", h.FindDrug)
	})
	r.Get("/health", h.HealthCheck)
}

// ServeHTTP routes the request through the handler's own router.
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error      string             `json:"error"`
	Message    string             `json:"message"`
	Code       int                `json:"code"`
	Violations []dosing.Violation `json:"violations,omitempty"`
}

var encodeFailureBody = []byte(`{"error":"Internal Server Error","message":"failed to encode response","code":500}`)

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailureBody)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

// respondWithProfileError reports a rejected profile with one entry per field.
func (h *HTTPHandlerImpl) respondWithProfileError(w http.ResponseWriter, err error) {
	var verr *dosing.ValidationError
	if !errors.As(err, &verr) {
		logging.Error("Calculation failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "calculation failed")
		return
	}
	h.RespondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:      http.StatusText(http.StatusBadRequest),
		Message:    verr.Error(),
		Code:       http.StatusBadRequest,
		Violations: verr.Violations,
	})
}

// CalculateDoses computes every category from a JSON profile.
func (h *HTTPHandlerImpl) CalculateDoses(w http.ResponseWriter, r *http.Request) {
	var req validation.ProfileRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.RespondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		logging.Warn("Malformed profile body", "error", err)
		h.RespondWithError(w, http.StatusBadRequest, "request body must be a JSON patient profile")
		return
	}

	profile, err := req.Profile()
	if err != nil {
		metrics.ProfileValidationFailuresTotal.Inc()
		h.respondWithProfileError(w, err)
		return
	}

	h.calculate(w, profile)
}

// CalculateDosesQuery computes every category from query parameters.
func (h *HTTPHandlerImpl) CalculateDosesQuery(w http.ResponseWriter, r *http.Request) {
	profile, err := validation.ParseProfile(validation.FromValues(r.URL.Query()))
	if err != nil {
		metrics.ProfileValidationFailuresTotal.Inc()
		h.respondWithProfileError(w, err)
		return
	}

	h.calculate(w, profile)
}

func (h *HTTPHandlerImpl) calculate(w http.ResponseWriter, profile dosing.Profile) {
	start := time.Now()
	calc, err := h.calculator.Calculate(profile)
	if err != nil {
		h.respondWithProfileError(w, err)
		return
	}

	logging.Debug("Doses calculated", "calculation_id", calc.ID, "duration", time.Since(start).String())
	h.RespondWithJSON(w, http.StatusOK, render.Calculation(calc))
}

// CalculateCategory computes one category from query parameters. An
// unknown category is a 404; a known but empty one is a 200 with the empty
// message.
func (h *HTTPHandlerImpl) CalculateCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}

	profile, err := validation.ParseProfile(validation.FromValues(r.URL.Query()))
	if err != nil {
		metrics.ProfileValidationFailuresTotal.Inc()
		h.respondWithProfileError(w, err)
		return
	}

	res, err := h.calculator.CalculateCategory(category, profile)
	if err != nil {
		h.respondWithProfileError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, render.Cards(res))
}

// ServeCatalog lists every category of the catalog.
func (h *HTTPHandlerImpl) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, render.Catalog(h.store))
}

// ServeCatalogCategory lists one category.
func (h *HTTPHandlerImpl) ServeCatalogCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := h.category(w, r)
	if !ok {
		return
	}
	h.RespondWithJSON(w, http.StatusOK, render.CatalogCategory(h.store, category))
}

// DrugResponse is a single catalog entry with its raw rules.
type DrugResponse struct {
	render.EntryView
	CategoryID catalog.Category                 `json:"category_id"`
	Rules      map[catalog.RuleKind]catalog.Rule `json:"rules"`
}

// FindDrug returns one catalog entry by name, ignoring case and accents.
func (h *HTTPHandlerImpl) FindDrug(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateInput(name); err != nil {
		logging.Warn("Unusual user input", "name", name, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, found := h.store.Find(name)
	if !found {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("drug %q not found", strings.TrimSpace(name)))
		return
	}
	category, _ := h.store.CategoryOf(name)

	h.RespondWithJSON(w, http.StatusOK, DrugResponse{
		EntryView:  render.Entry(entry),
		CategoryID: category,
		Rules:      entry.Rules,
	})
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// HealthCheck reports service health.
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, code := h.health.HealthCheck()
	h.RespondWithJSON(w, code, HealthResponse{Status: status, Data: data})
}

// category resolves the {category} path parameter or answers 404.
func (h *HTTPHandlerImpl) category(w http.ResponseWriter, r *http.Request) (catalog.Category, bool) {
	raw := chi.URLParam(r, "category")
	category, ok := catalog.ParseCategory(raw)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", raw))
		return "", false
	}
	return category, true
}
