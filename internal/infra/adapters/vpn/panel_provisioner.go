package vpn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vpn-storefront/internal/config"
	"vpn-storefront/internal/domain/model"
	"vpn-storefront/internal/domain/ports/adapter"
)

var _ adapter.Provisioner = (*PanelProvisioner)(nil)

// PanelProvisioner talks to the VPN panel's REST API to create
// time-boxed accounts and grant reseller credits.
type PanelProvisioner struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPanelProvisioner(cfg config.ProvisionerConfig) (*PanelProvisioner, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("provisioner base url empty")
	}
	return &PanelProvisioner{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (p *PanelProvisioner) post(ctx context.Context, path string, payload any, out any) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("panel http %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (p *PanelProvisioner) ProvisionVPN(ctx context.Context, plan *model.Plan, customerEmail string) (*model.VPNAccount, error) {
	payload := map[string]any{
		"email":         customerEmail,
		"duration_days": plan.DurationDays,
		"device_limit":  plan.DeviceLimit,
	}
	var out struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
		Server   string `json:"server"`
		Port     int    `json:"port"`
		Protocol string `json:"protocol"`
	}
	if err := p.post(ctx, "/api/accounts", payload, &out); err != nil {
		return nil, fmt.Errorf("provision vpn: %w", err)
	}
	return &model.VPNAccount{
		ID:        out.ID,
		Username:  out.Username,
		Password:  out.Password,
		Server:    out.Server,
		Port:      out.Port,
		Protocol:  out.Protocol,
		ExpiresAt: time.Now().AddDate(0, 0, plan.DurationDays),
	}, nil
}

func (p *PanelProvisioner) GrantCredits(ctx context.Context, customerEmail string, credits int64) error {
	payload := map[string]any{
		"email":   customerEmail,
		"credits": credits,
	}
	if err := p.post(ctx, "/api/credits", payload, nil); err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}
	return nil
}
