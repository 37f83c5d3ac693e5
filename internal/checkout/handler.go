package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"maib-checkout/internal/auth"
	"maib-checkout/internal/logger"
	"maib-checkout/internal/maib"
	"maib-checkout/internal/order"
	"maib-checkout/internal/payment"
	"maib-checkout/internal/session"

	"go.uber.org/zap"
)

type Handler struct {
	svc             *Service
	guard           *Guard
	sessions        *session.Store
	defaultLanguage string
	log             *zap.Logger
}

func NewHandler(svc *Service, guard *Guard, sessions *session.Store, defaultLanguage string, log *zap.Logger) *Handler {
	return &Handler{
		svc:             svc,
		guard:           guard,
		sessions:        sessions,
		defaultLanguage: defaultLanguage,
		log:             log,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /checkout/{orderID}/maib/redirect", h.Initiate)
	mux.HandleFunc("GET /checkout/{orderID}/messages", h.Messages)
	mux.HandleFunc("POST /payment/maib/return", h.Return)
	mux.HandleFunc("POST /payment/maib/cancel", h.Cancel)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// orderFromPath loads the order named in the URL and checks the requester
// may access it.
func (h *Handler) orderFromPath(w http.ResponseWriter, r *http.Request) (*order.Order, bool) {
	id, err := strconv.ParseUint(r.PathValue("orderID"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusNotFound, order.ErrOrderNotFound.Error())
		return nil, false
	}

	o, err := h.svc.Order(r.Context(), uint(id))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if err := h.guard.CheckOrder(r, o); err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return o, true
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orderFromPath(w, r)
	if !ok {
		return
	}

	lang := maib.Language(r.Header.Get("Accept-Language"), h.defaultLanguage)
	redirect, err := h.svc.Initiate(r.Context(), o, lang)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redirect)
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.orderFromPath(w, r); !ok {
		return
	}

	msgs, err := h.sessions.Flashes(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"messages": msgs})
}

// resolve runs the shared preamble of the bank return endpoints.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*payment.Payment, *order.Order, bool) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, ErrMissingTransactionID)
		return nil, nil, false
	}
	transID := r.PostForm.Get(maib.FieldTransID)
	if err := h.guard.CheckTransactionID(transID); err != nil {
		h.fail(w, r, err)
		return nil, nil, false
	}

	p, o, err := h.svc.Resolve(r.Context(), transID)
	if err != nil {
		h.fail(w, r, err)
		return nil, nil, false
	}
	if err := h.guard.CheckOrder(r, o); err != nil {
		h.fail(w, r, err)
		return nil, nil, false
	}
	return p, o, true
}

func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	p, o, ok := h.resolve(w, r)
	if !ok {
		return
	}

	target, err := h.svc.Return(r.Context(), p, o)
	if errors.Is(err, ErrPaymentFailed) {
		if ferr := h.sessions.AddFlash(w, r, ErrPaymentFailed.Error()); ferr != nil {
			logger.With(r.Context(), h.log).Warn("Failed to store flash message", zap.Error(ferr))
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if acc, ok := auth.AccountFrom(r.Context()); ok && !acc.Authenticated {
		if err := h.sessions.AddCartID(w, r, o.ID, session.CartCompleted); err != nil {
			logger.With(r.Context(), h.log).Warn("Failed to record completed cart", zap.Error(err))
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, o, ok := h.resolve(w, r)
	if !ok {
		return
	}

	target, err := h.svc.Cancel(r.Context(), p, o)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.With(r.Context(), h.log)

	switch {
	case errors.Is(err, ErrMissingTransactionID):
		writeError(w, http.StatusBadRequest, "invalid payment request")
	case errors.Is(err, payment.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "payment not found")
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, order.ErrOrderNotFound.Error())
	case errors.Is(err, ErrAccessDenied):
		writeError(w, http.StatusForbidden, ErrAccessDenied.Error())
	case errors.Is(err, ErrInitiation):
		writeError(w, http.StatusBadGateway, ErrInitiation.Error())
	default:
		log.Error("Checkout request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
