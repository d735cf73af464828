package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway implements adapter.PaymentGateway against the
// Checkout Pro REST API. Preference creation and payment lookup run
// behind a circuit breaker so a provider outage degrades to the
// fail-closed path instead of hanging every checkout.
type MercadoPagoGateway struct {
	accessToken string
	sandbox     bool
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

func NewMercadoPagoGateway(accessToken string, sandbox bool) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, errors.New("access token empty")
	}
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "mercadopago",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &MercadoPagoGateway{
		accessToken: accessToken,
		sandbox:     sandbox,
		client:      &http.Client{Timeout: 15 * time.Second},
		breaker:     cb,
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

const mpBase = "https://api.mercadopago.com"

func (g *MercadoPagoGateway) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	return g.breaker.Execute(func() ([]byte, error) {
		var rd *bytes.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		} else {
			rd = bytes.NewReader(nil)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+g.accessToken)

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("mercadopago http %d", resp.StatusCode)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// CreatePreference creates a Checkout Pro preference and returns the
// redirect URL. The URL carries the preference id as the pref_id query
// parameter; callers extract it from there.
func (g *MercadoPagoGateway) CreatePreference(ctx context.Context, req adapter.PreferenceRequest) (string, error) {
	payload := map[string]any{
		"external_reference": req.ExternalID,
		"items": []map[string]any{{
			"title":       req.Title,
			"quantity":    1,
			"currency_id": req.Currency,
			"unit_price":  float64(req.AmountCentavos) / 100,
		}},
		"payer": map[string]any{
			"email": req.PayerEmail,
			"name":  req.PayerName,
		},
		"back_urls": map[string]any{
			"success": req.SuccessURL,
			"failure": req.FailureURL,
			"pending": req.SuccessURL,
		},
		"auto_return":      "approved",
		"notification_url": req.NotificationURL,
	}
	b, _ := json.Marshal(payload)

	body, err := g.do(ctx, http.MethodPost, mpBase+"/checkout/preferences", b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	var out struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	payURL := out.InitPoint
	if g.sandbox && out.SandboxInitPoint != "" {
		payURL = out.SandboxInitPoint
	}
	if payURL == "" {
		return "", domain.ErrPreferenceCreation
	}
	return payURL, nil
}

// QueryPayment searches payments by external_reference and maps the
// provider status onto the domain status. An empty search result means
// the customer never completed the flow; that stays pending.
func (g *MercadoPagoGateway) QueryPayment(ctx context.Context, externalID string) (model.PaymentStatus, string, error) {
	url := fmt.Sprintf("%s/v1/payments/search?external_reference=%s&sort=date_created&criteria=desc", mpBase, externalID)
	body, err := g.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	var out struct {
		Results []struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", "", err
	}
	if len(out.Results) == 0 {
		return model.PaymentStatusPending, "", nil
	}

	r := out.Results[0]
	ref := fmt.Sprintf("%d", r.ID)
	switch r.Status {
	case "approved":
		return model.PaymentStatusApproved, ref, nil
	case "rejected":
		return model.PaymentStatusRejected, ref, nil
	case "cancelled", "refunded", "charged_back":
		return model.PaymentStatusCancelled, ref, nil
	default:
		// pending, in_process, authorized
		return model.PaymentStatusPending, ref, nil
	}
}
