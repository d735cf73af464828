package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/ports/repository"
	"vpn-storefront/internal/infra/adapters/widget"
	"vpn-storefront/internal/infra/i18n"
	red "vpn-storefront/internal/infra/redis"
	"vpn-storefront/internal/usecase"
)

// Server is the public storefront API: plan listing, checkout sessions,
// the widget bridge, the provider webhook and the redirect-back pages.
type Server struct {
	checkoutUC usecase.CheckoutUseCase
	reconcile  usecase.ReconcileUseCase
	widgetMgr  *usecase.WidgetManager
	bridge     *widget.BricksBridge
	plans      repository.PlanRepository
	payments   repository.PaymentRepository
	locker     red.Locker
	translator *i18n.Translator

	defaultContainer string
	log              *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	reconcile usecase.ReconcileUseCase,
	widgetMgr *usecase.WidgetManager,
	bridge *widget.BricksBridge,
	plans repository.PlanRepository,
	payments repository.PaymentRepository,
	locker red.Locker,
	translator *i18n.Translator,
	defaultContainer string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC:       checkoutUC,
		reconcile:        reconcile,
		widgetMgr:        widgetMgr,
		bridge:           bridge,
		plans:            plans,
		payments:         payments,
		locker:           locker,
		translator:       translator,
		defaultContainer: defaultContainer,
		log:              logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/planes", s.handleListPlans)

		r.Post("/checkout", s.handleStart)
		r.Route("/checkout/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSession)
			r.Put("/cliente", s.handleSetCustomer)
			r.Post("/cupon", s.handleApplyCoupon)
			r.Delete("/cupon", s.handleRemoveCoupon)
			r.Post("/referido", s.handleApplyReferral)
			r.Delete("/referido", s.handleRemoveReferral)
			r.Post("/saldo", s.handleApplyBalance)
			r.Post("/comprar", s.handlePurchaseIntent)
			r.Post("/widget", s.handleCreateButton)
			r.Post("/widget/enviar", s.handleWidgetSubmit)
		})

		r.Get("/widget/comandos", s.handleWidgetCommands)
		r.Get("/pagos/{paymentID}", s.handlePaymentStatus)
		r.Post("/pagos/webhook", s.handleWebhook)
	})

	r.Get("/pago/exito", s.handleReturn)
	r.Get("/pago/error", s.handleReturn)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).Msg("http request")
	})
}

// httpStatusFor maps domain sentinels onto HTTP status codes.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrMalformedPaymentLink):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNothingToPay), errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGatewayUnavailable), errors.Is(err, domain.ErrPreferenceCreation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
