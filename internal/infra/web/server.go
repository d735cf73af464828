package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"vpn-storefront/internal/usecase"
)

// Server is the admin API: plan/coupon/promotion management, referral
// payout settlement and revenue stats. Login trades the configured API
// key for a short-lived JWT session.
type Server struct {
	planUC   usecase.PlanUseCase
	couponUC usecase.CouponUseCase
	promoUC  usecase.PromotionUseCase
	refUC    usecase.ReferralUseCase
	statsUC  usecase.StatsUseCase
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	couponUC usecase.CouponUseCase,
	promoUC usecase.PromotionUseCase,
	refUC usecase.ReferralUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		planUC:   planUC,
		couponUC: couponUC,
		promoUC:  promoUC,
		refUC:    refUC,
		statsUC:  statsUC,
		auth:     auth,
		apiKey:   apiKey,
		log:      logger,
	}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/admin/login", s.handleLogin)
	mux.HandleFunc("/api/v1/admin/logout", s.handleLogout)

	mux.Handle("/api/v1/admin/stats", s.authMiddleware(statsHandler(s.statsUC)))

	couponsRouter := s.authMiddleware(s.couponsRouter())
	mux.Handle("/api/v1/admin/cupones", couponsRouter)
	mux.Handle("/api/v1/admin/cupones/", couponsRouter)

	promosRouter := s.authMiddleware(s.promotionsRouter())
	mux.Handle("/api/v1/admin/promociones", promosRouter)
	mux.Handle("/api/v1/admin/promociones/", promosRouter)

	plansRouter := s.authMiddleware(s.plansRouter())
	mux.Handle("/api/v1/admin/planes", plansRouter)
	mux.Handle("/api/v1/admin/planes/", plansRouter)

	referralsRouter := s.authMiddleware(s.referralsRouter())
	mux.Handle("/api/v1/admin/referidos", referralsRouter)
	mux.Handle("/api/v1/admin/referidos/", referralsRouter)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// authMiddleware guards admin routes with the JWT session.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// trimID extracts the trailing path segment after prefix, "" when absent.
func trimID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	return strings.Trim(id, "/")
}

func (s *Server) couponsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := trimID(r.URL.Path, "/api/v1/admin/cupones")
		if id == "" {
			switch r.Method {
			case http.MethodGet:
				couponsListHandler(s.couponUC)(w, r)
			case http.MethodPost:
				couponsCreateHandler(s.couponUC)(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		switch r.Method {
		case http.MethodPut:
			couponsUpdateHandler(s.couponUC, id)(w, r)
		case http.MethodDelete:
			couponsDeleteHandler(s.couponUC, id)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) promotionsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := trimID(r.URL.Path, "/api/v1/admin/promociones")
		if id == "" {
			switch r.Method {
			case http.MethodGet:
				promotionsListHandler(s.promoUC)(w, r)
			case http.MethodPost:
				promotionsCreateHandler(s.promoUC)(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		switch r.Method {
		case http.MethodPut:
			promotionsUpdateHandler(s.promoUC, id)(w, r)
		case http.MethodDelete:
			promotionsDeleteHandler(s.promoUC, id)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) plansRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := trimID(r.URL.Path, "/api/v1/admin/planes")
		if id == "" {
			switch r.Method {
			case http.MethodGet:
				plansListHandler(s.planUC)(w, r)
			case http.MethodPost:
				plansCreateHandler(s.planUC)(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		switch r.Method {
		case http.MethodPut:
			plansUpdateHandler(s.planUC, id)(w, r)
		case http.MethodDelete:
			plansDeleteHandler(s.planUC, id)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// referralsRouter also exposes the payout surface:
// GET  /api/v1/admin/referidos/pagos     -> unpaid redemptions
// POST /api/v1/admin/referidos/pagos     -> settle by redemption ids
func (s *Server) referralsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := trimID(r.URL.Path, "/api/v1/admin/referidos")
		if id == "pagos" {
			switch r.Method {
			case http.MethodGet:
				payoutsListHandler(s.refUC)(w, r)
			case http.MethodPost:
				payoutsSettleHandler(s.refUC)(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		if id == "" && r.Method == http.MethodPost {
			referralsCreateHandler(s.refUC)(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
