package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/usecase"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statsHandler serves revenue and payout totals for the dashboard.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		week, month, year, err := statsUC.Revenue(ctx)
		if err != nil {
			http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
			return
		}
		payoutCount, payoutTotal, err := statsUC.PendingPayouts(ctx)
		if err != nil {
			http.Error(w, "Failed to get payouts", http.StatusInternalServerError)
			return
		}

		response := struct {
			Revenue struct {
				Week  int64 `json:"week"`
				Month int64 `json:"month"`
				Year  int64 `json:"year"`
			} `json:"revenue_centavos"`
			PendingPayouts struct {
				Count int   `json:"count"`
				Total int64 `json:"total_centavos"`
			} `json:"pending_payouts"`
		}{}
		response.Revenue.Week = week
		response.Revenue.Month = month
		response.Revenue.Year = year
		response.PendingPayouts.Count = payoutCount
		response.PendingPayouts.Total = payoutTotal

		writeJSON(w, http.StatusOK, response)
	}
}

// ---- coupons ----

type couponRequest struct {
	Code             string     `json:"code"`
	Kind             string     `json:"kind"` // "percentage" | "fixed"
	Value            int64      `json:"value"`
	MinPriceCentavos int64      `json:"min_price_centavos"`
	PlanIDs          []string   `json:"plan_ids"`
	ValidFrom        *time.Time `json:"valid_from"`
	ValidUntil       *time.Time `json:"valid_until"`
	MaxUses          int        `json:"max_uses"`
	Active           bool       `json:"active"`
}

func (req couponRequest) toModel(id string) *model.Coupon {
	return &model.Coupon{
		ID:               id,
		Code:             req.Code,
		Kind:             model.DiscountKind(req.Kind),
		Value:            req.Value,
		MinPriceCentavos: req.MinPriceCentavos,
		PlanIDs:          req.PlanIDs,
		ValidFrom:        req.ValidFrom,
		ValidUntil:       req.ValidUntil,
		MaxUses:          req.MaxUses,
		Active:           req.Active,
	}
}

func couponsListHandler(uc usecase.CouponUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupons, err := uc.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list coupons", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, coupons)
	}
}

func couponsCreateHandler(uc usecase.CouponUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req couponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		c := req.toModel("")
		if err := uc.Create(r.Context(), c); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create coupon", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func couponsUpdateHandler(uc usecase.CouponUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req couponRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		c := req.toModel(id)
		if err := uc.Update(r.Context(), c); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to update coupon", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func couponsDeleteHandler(uc usecase.CouponUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Coupon not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete coupon", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- promotions ----

type promotionRequest struct {
	Name        string    `json:"name"`
	DiscountPct int64     `json:"discount_pct"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Active      bool      `json:"active"`
}

func promotionsListHandler(uc usecase.PromotionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := uc.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list promotions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, promos)
	}
}

func promotionsCreateHandler(uc usecase.PromotionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promotionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p := &model.Promotion{
			Name:        req.Name,
			DiscountPct: req.DiscountPct,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			Active:      req.Active,
		}
		if err := uc.Create(r.Context(), p); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create promotion", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func promotionsUpdateHandler(uc usecase.PromotionUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promotionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p := &model.Promotion{
			ID:          id,
			Name:        req.Name,
			DiscountPct: req.DiscountPct,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			Active:      req.Active,
		}
		if err := uc.Update(r.Context(), p); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to update promotion", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func promotionsDeleteHandler(uc usecase.PromotionUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Promotion not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete promotion", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- plans ----

type planRequest struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"` // "vpn_access" | "reseller_credit"
	DurationDays  int    `json:"duration_days"`
	DeviceLimit   int    `json:"device_limit"`
	Credits       int64  `json:"credits"`
	PriceCentavos int64  `json:"price_centavos"`
	Active        bool   `json:"active"`
}

func plansListHandler(uc usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := uc.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, plans)
	}
}

func plansCreateHandler(uc usecase.PlanUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		plan, err := uc.Create(r.Context(), req.Name, model.PlanKind(req.Kind), req.DurationDays, req.DeviceLimit, req.Credits, req.PriceCentavos)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create plan", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	}
}

func plansUpdateHandler(uc usecase.PlanUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p := &model.Plan{
			ID:            id,
			Name:          req.Name,
			Kind:          model.PlanKind(req.Kind),
			DurationDays:  req.DurationDays,
			DeviceLimit:   req.DeviceLimit,
			Credits:       req.Credits,
			PriceCentavos: req.PriceCentavos,
			Active:        req.Active,
		}
		if err := uc.Update(r.Context(), p); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to update plan", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func plansDeleteHandler(uc usecase.PlanUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Plan not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete plan", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- referrals and payouts ----

type referralRequest struct {
	Code               string     `json:"code"`
	OwnerEmail         string     `json:"owner_email"`
	DiscountPct        int64      `json:"discount_pct"`
	RewardCentavos     int64      `json:"reward_centavos"`
	ValidFrom          *time.Time `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until"`
	MaxUsesPerCustomer int        `json:"max_uses_per_customer"`
}

func referralsCreateHandler(uc usecase.ReferralUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req referralRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		rc := &model.ReferralCode{
			Code:               req.Code,
			OwnerEmail:         req.OwnerEmail,
			DiscountPct:        req.DiscountPct,
			RewardCentavos:     req.RewardCentavos,
			ValidFrom:          req.ValidFrom,
			ValidUntil:         req.ValidUntil,
			MaxUsesPerCustomer: req.MaxUsesPerCustomer,
		}
		if err := uc.Create(r.Context(), rc); err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create referral code", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, rc)
	}
}

func payoutsListHandler(uc usecase.ReferralUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payouts, err := uc.ListUnpaidPayouts(r.Context())
		if err != nil {
			http.Error(w, "Failed to list payouts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, payouts)
	}
}

func payoutsSettleHandler(uc usecase.ReferralUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RedemptionIDs []string `json:"redemption_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.RedemptionIDs) == 0 {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		total, err := uc.SettlePayouts(r.Context(), req.RedemptionIDs)
		if err != nil {
			http.Error(w, "Failed to settle payouts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"settled":        len(req.RedemptionIDs),
			"total_centavos": total,
		})
	}
}
