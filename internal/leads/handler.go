package leads

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigcity/rewardstrategy/internal/platform/httpx"
	"github.com/bigcity/rewardstrategy/internal/shared"
	"github.com/bigcity/rewardstrategy/internal/view"
)

// StateSessionKey stores the visitor's form state in the session.
const StateSessionKey = "lead_form_state"

const pageTitle = "Festive Reward Strategy Request"

// Handler serves the lead form and its JSON API.
type Handler struct {
	logger     *slog.Logger
	controller *Controller
	templates  *view.Engine
	csrf       *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, controller *Controller, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, controller: controller, templates: templates, csrf: csrf}
}

// MountRoutes registers the form page and the /api/lead endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showForm)
	r.Post("/", h.submitForm)
	r.Post("/reset", h.resetForm)

	r.Route("/api/lead", func(r chi.Router) {
		r.Get("/", h.getState)
		r.Patch("/fields", h.editField)
		r.Post("/submit", h.submitState)
		r.Delete("/", h.deleteState)
	})
}

type formPage struct {
	State  *State
	Fields []Field
}

// fieldEdit is the PATCH body. Scalars use Value; multi-select fields use
// Option and Selected.
type fieldEdit struct {
	Field    string  `json:"field"`
	Value    *string `json:"value,omitempty"`
	Option   *string `json:"option,omitempty"`
	Selected *bool   `json:"selected,omitempty"`
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	st := h.loadState(sess)
	h.render(w, r, st, http.StatusOK)
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	st := h.loadState(sess)
	st.Values.ApplyForm(r.PostForm)

	err := h.controller.Submit(r.Context(), sessionID(sess), st)
	if !errors.Is(err, ErrSubmissionInFlight) {
		h.saveState(sess, st)
	}
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	status := http.StatusBadGateway
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, ErrSubmissionInFlight):
		status = http.StatusConflict
		st.Status = StatusError
		st.Detail = Detail(err)
	}
	h.render(w, r, st, status)
}

func (h *Handler) resetForm(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Delete(StateSessionKey)
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Form cleared"})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	st := h.loadState(sess)
	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
		return
	}
	w.Header().Set(shared.CSRFHeader, token)
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) editField(w http.ResponseWriter, r *http.Request) {
	var edit fieldEdit
	if err := httpx.DecodeJSON(r, &edit); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	st := h.loadState(sess)
	if err := applyEdit(&st.Values, edit); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	h.saveState(sess, st)
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) submitState(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	st := h.loadState(sess)

	err := h.controller.Submit(r.Context(), sessionID(sess), st)
	if errors.Is(err, ErrSubmissionInFlight) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrConflict, Detail(err)))
		return
	}
	h.saveState(sess, st)
	httpx.JSON(w, apiStatus(err), st)
}

func (h *Handler) deleteState(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Delete(StateSessionKey)
	}
	httpx.JSON(w, http.StatusOK, NewState())
}

func applyEdit(values *FormValues, edit fieldEdit) error {
	if _, ok := LookupField(edit.Field); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, edit.Field)
	}
	switch {
	case edit.Option != nil:
		selected := true
		if edit.Selected != nil {
			selected = *edit.Selected
		}
		return values.Toggle(edit.Field, *edit.Option, selected)
	case edit.Value != nil:
		return values.Set(edit.Field, *edit.Value)
	default:
		return errors.New("edit needs a value or an option")
	}
}

func apiStatus(err error) int {
	var verr *ValidationError
	var serverErr *ServerError
	var netErr *NetworkError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &serverErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) loadState(sess *shared.Session) *State {
	st := NewState()
	if sess == nil {
		return st
	}
	if _, err := sess.GetJSON(StateSessionKey, st); err != nil {
		h.logger.Warn("discard unreadable form state", slog.Any("error", err))
		st = NewState()
	}
	st.Normalize()
	return st
}

func (h *Handler) saveState(sess *shared.Session, st *State) {
	if sess == nil {
		return
	}
	if err := sess.SetJSON(StateSessionKey, st); err != nil {
		h.logger.Error("store form state", slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, st *State, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("ensure csrf token", slog.Any("error", err))
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       pageTitle,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        formPage{State: st, Fields: Fields()},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/lead_form.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func sessionID(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.ID
}
