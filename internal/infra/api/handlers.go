package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
)

// ---- view models (customer-facing wire names are Spanish) ----

type planView struct {
	ID             string `json:"id"`
	Nombre         string `json:"nombre"`
	Tipo           string `json:"tipo"`
	DuracionDias   int    `json:"duracion_dias,omitempty"`
	Dispositivos   int    `json:"dispositivos,omitempty"`
	Creditos       int64  `json:"creditos,omitempty"`
	PrecioCentavos int64  `json:"precio_centavos"`
}

type sessionView struct {
	ID              string                   `json:"id"`
	PlanID          string                   `json:"plan_id"`
	Nombre          string                   `json:"nombre,omitempty"`
	Email           string                   `json:"email,omitempty"`
	Cupon           *model.AppliedCoupon     `json:"cupon,omitempty"`
	CodigoReferido  string                   `json:"codigo_referido,omitempty"`
	SaldoDisponible int64                    `json:"saldo_disponible"`
	SaldoSolicitado int64                    `json:"saldo_solicitado"`
	Precios         model.PriceBreakdown     `json:"precios"`
	Preferencia     *model.PaymentPreference `json:"preferencia,omitempty"`
	SoloSaldo       bool                     `json:"pago_solo_con_saldo"`
	Mensaje         string                   `json:"mensaje,omitempty"`
}

func (s *Server) sessionViewOf(sess *model.CheckoutSession, messageKey string) sessionView {
	v := sessionView{
		ID:              sess.ID,
		PlanID:          sess.PlanID,
		Nombre:          sess.CustomerName,
		Email:           sess.CustomerEmail,
		Cupon:           sess.Coupon,
		CodigoReferido:  sess.ReferralCode,
		SaldoDisponible: sess.WalletBalance,
		SaldoSolicitado: sess.BalanceRequested,
		Precios:         sess.Quote,
		Preferencia:     sess.Preference,
		SoloSaldo:       sess.Quote.FullBalance(),
	}
	if messageKey != "" {
		v.Mensaje = s.translator.T(messageKey)
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, httpStatusFor(err), map[string]string{"error": err.Error()})
}

// ---- plans ----

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListActive(r.Context(), nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, planView{
			ID:             p.ID,
			Nombre:         p.Name,
			Tipo:           string(p.Kind),
			DuracionDias:   p.DurationDays,
			Dispositivos:   p.DeviceLimit,
			Creditos:       p.Credits,
			PrecioCentavos: p.PriceCentavos,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ---- checkout session ----

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID string `json:"plan_id"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	sess, err := s.checkoutUC.Start(r.Context(), req.PlanID, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.sessionViewOf(sess, ""))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.checkoutUC.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, ""))
}

func (s *Server) handleSetCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nombre string `json:"nombre"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	sess, err := s.checkoutUC.SetCustomer(r.Context(), chi.URLParam(r, "sessionID"), req.Nombre, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, ""))
}

// ---- discounts ----

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Codigo string `json:"codigo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	sess, v, err := s.checkoutUC.ApplyCoupon(r.Context(), chi.URLParam(r, "sessionID"), req.Codigo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// An invalid code is a business outcome, not an HTTP error: the page
	// renders the message and keeps the session usable.
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, v.Message))
}

func (s *Server) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	sess, err := s.checkoutUC.RemoveCoupon(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, ""))
}

func (s *Server) handleApplyReferral(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Codigo string `json:"codigo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	sess, v, err := s.checkoutUC.ApplyReferral(r.Context(), chi.URLParam(r, "sessionID"), req.Codigo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, v.Message))
}

func (s *Server) handleRemoveReferral(w http.ResponseWriter, r *http.Request) {
	sess, err := s.checkoutUC.RemoveReferral(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, ""))
}

func (s *Server) handleApplyBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Monto int64 `json:"monto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}
	sess, err := s.checkoutUC.ApplyBalance(r.Context(), chi.URLParam(r, "sessionID"), req.Monto)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionViewOf(sess, ""))
}

// ---- purchase ----

type purchaseView struct {
	PagoConSaldoCompleto bool              `json:"pagoConSaldoCompleto"`
	LinkPago             string            `json:"linkPago,omitempty"`
	CuentaVPN            *model.VPNAccount `json:"cuentaVPN,omitempty"`
	SaldoUsado           int64             `json:"saldoUsado"`
	CodigoReferidoUsado  string            `json:"codigoReferidoUsado,omitempty"`
	PagoID               string            `json:"pago_id,omitempty"`
	Mensaje              string            `json:"mensaje,omitempty"`
}

// handlePurchaseIntent finalizes the session: wallet-only purchases
// settle immediately and never touch the gateway; everything else gets
// a hosted payment link.
func (s *Server) handlePurchaseIntent(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.checkoutUC.Session(sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if sess.Quote.FullBalance() {
		res, err := s.checkoutUC.PurchaseWithBalance(r.Context(), sessionID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, purchaseView{
			PagoConSaldoCompleto: true,
			CuentaVPN:            res.Account,
			SaldoUsado:           res.Payment.BalanceUsed,
			CodigoReferidoUsado:  res.Payment.ReferralCode,
			PagoID:               res.Payment.ID,
			Mensaje:              s.translator.T(res.Message),
		})
		return
	}

	link, err := s.checkoutUC.PaymentLink(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, purchaseView{
		LinkPago:            link,
		SaldoUsado:          sess.Quote.BalanceApplied,
		CodigoReferidoUsado: sess.ReferralCode,
	})
}

// ---- widget bridge ----

func (s *Server) handleCreateButton(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		ContainerID string `json:"container_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ContainerID == "" {
		req.ContainerID = s.defaultContainer
	}

	if err := s.widgetMgr.Initialize(r.Context()); err != nil {
		// Widget unusable: the page falls back to the direct payment link.
		link, lerr := s.checkoutUC.PaymentLink(r.Context(), sessionID)
		if lerr != nil {
			s.writeError(w, lerr)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"fallback": true, "linkPago": link})
		return
	}

	// The callback captures only the session id; the amount and discounts
	// are read from the session store when the customer actually submits.
	err := s.widgetMgr.CreateButton(r.Context(), req.ContainerID, adapter.WalletInit{RedirectMode: "self"},
		func(ctx context.Context) (string, error) {
			pref, err := s.checkoutUC.CreatePreference(ctx, sessionID)
			if err != nil {
				return "", err
			}
			return pref.ID, nil
		})
	if err != nil {
		link, lerr := s.checkoutUC.PaymentLink(r.Context(), sessionID)
		if lerr != nil {
			s.writeError(w, lerr)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"fallback": true, "linkPago": link})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"fallback": false, "container_id": req.ContainerID})
}

func (s *Server) handleWidgetSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContainerID string `json:"container_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ContainerID == "" {
		req.ContainerID = s.defaultContainer
	}

	prefID, err := s.widgetMgr.Submit(r.Context(), req.ContainerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"preference_id": prefID})
}

func (s *Server) handleWidgetCommands(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.bridge.Drain())
}

// ---- payment status, webhook, redirect-back ----

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.payments.FindByID(r.Context(), nil, chi.URLParam(r, "paymentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"pago_id":    p.ID,
		"estado":     string(p.Status),
		"entregado":  p.Provisioned,
		"saldoUsado": p.BalanceUsed,
	})
}

// handleWebhook takes provider notifications. Confirmation runs under a
// short redis lock keyed by payment id so the webhook and the
// redirect-back sweep cannot double-finalize.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var note struct {
		Type string `json:"type"`
		Data struct {
			ID                string `json:"id"`
			ExternalReference string `json:"external_reference"`
		} `json:"data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&note)

	paymentID := note.Data.ExternalReference
	if paymentID == "" {
		paymentID = r.URL.Query().Get("external_reference")
	}
	if paymentID == "" {
		// Nothing to correlate against; the background sweep covers it.
		w.WriteHeader(http.StatusOK)
		return
	}

	token, err := s.locker.TryLock(r.Context(), "confirm:"+paymentID, 30*time.Second)
	if err != nil {
		// Someone else is confirming right now; the provider will retry.
		w.WriteHeader(http.StatusOK)
		return
	}
	defer func() { _ = s.locker.Unlock(r.Context(), "confirm:"+paymentID, token) }()

	if _, err := s.checkoutUC.ConfirmFromProvider(r.Context(), paymentID); err != nil {
		s.log.Warn().Err(err).Str("payment", paymentID).Msg("webhook confirmation failed")
		// 500 asks the provider to redeliver.
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleReturn is the redirect-back page target. It kicks one immediate
// confirmation, then polls with the bounded schedule; exhaustion is a
// soft outcome ("estamos verificando"), never an error page.
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("external_reference")
	if paymentID == "" {
		s.writeError(w, domain.ErrInvalidArgument)
		return
	}

	if token, err := s.locker.TryLock(r.Context(), "confirm:"+paymentID, 30*time.Second); err == nil {
		if _, err := s.checkoutUC.ConfirmFromProvider(r.Context(), paymentID); err != nil {
			s.log.Debug().Err(err).Str("payment", paymentID).Msg("redirect-back confirmation attempt failed")
		}
		_ = s.locker.Unlock(r.Context(), "confirm:"+paymentID, token)
	}

	res, err := s.reconcile.Await(r.Context(), paymentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"pago_id": paymentID,
		"estado":  string(res.Outcome),
		"mensaje": s.translator.T(res.Message),
	})
}
