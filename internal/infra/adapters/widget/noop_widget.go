package widget

import (
	"context"
	"sync"

	"vpn-storefront/internal/domain/ports/adapter"
)

var _ adapter.WidgetSDK = (*NoopWidgetSDK)(nil)

// NoopWidgetSDK records calls for tests. Errors are injectable.
type NoopWidgetSDK struct {
	mu sync.Mutex

	InitializeFunc     func(ctx context.Context, publicKey string) error
	CreateWalletFunc   func(ctx context.Context, containerID string, init adapter.WalletInit) error
	ClearContainerFunc func(ctx context.Context, containerID string) error

	InitCalls   int
	MountCalls  []string
	ClearCalls  []string
	Preferences map[string]string // container -> preference id
}

func NewNoopWidgetSDK() *NoopWidgetSDK {
	return &NoopWidgetSDK{Preferences: make(map[string]string)}
}

func (s *NoopWidgetSDK) Initialize(ctx context.Context, publicKey string) error {
	s.mu.Lock()
	s.InitCalls++
	s.mu.Unlock()
	if s.InitializeFunc != nil {
		return s.InitializeFunc(ctx, publicKey)
	}
	return nil
}

func (s *NoopWidgetSDK) CreateWallet(ctx context.Context, containerID string, init adapter.WalletInit) error {
	if s.CreateWalletFunc != nil {
		if err := s.CreateWalletFunc(ctx, containerID, init); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.MountCalls = append(s.MountCalls, containerID)
	s.Preferences[containerID] = init.PreferenceID
	s.mu.Unlock()
	return nil
}

func (s *NoopWidgetSDK) ClearContainer(ctx context.Context, containerID string) error {
	if s.ClearContainerFunc != nil {
		if err := s.ClearContainerFunc(ctx, containerID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.ClearCalls = append(s.ClearCalls, containerID)
	delete(s.Preferences, containerID)
	s.mu.Unlock()
	return nil
}
