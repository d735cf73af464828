package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vpn-storefront/internal/domain"
	"vpn-storefront/internal/domain/ports/adapter"
	"vpn-storefront/internal/infra/metrics"
)

type WidgetState int

const (
	WidgetUninitialized WidgetState = iota
	WidgetInitializing
	WidgetReady
	WidgetButtonMounted
)

// SubmitFunc is invoked when the customer hits the payment button. It
// must resolve the preference against the session state at invocation
// time; implementations capture an identifier, never price values.
type SubmitFunc func(ctx context.Context) (preferenceID string, err error)

// WidgetManager is the process-wide owner of the provider payment
// widget. Invariants it enforces:
//   - the SDK handshake runs at most once; concurrent Initialize calls
//     coalesce onto the first
//   - at most one widget mount per container for the process lifetime;
//     repeat CreateButton calls only rebind the submit callback
//   - the container is cleared before the first mount
//
// All mount state is private; callers go through these methods.
type WidgetManager struct {
	mu        sync.Mutex
	state     WidgetState
	initDone  chan struct{}
	initErr   error
	sdk       adapter.WidgetSDK
	publicKey string
	mounted   map[string]*mountedButton
	log       *zerolog.Logger
}

type mountedButton struct {
	onSubmit SubmitFunc
}

func NewWidgetManager(sdk adapter.WidgetSDK, publicKey string, logger *zerolog.Logger) *WidgetManager {
	return &WidgetManager{
		sdk:       sdk,
		publicKey: publicKey,
		mounted:   make(map[string]*mountedButton),
		log:       logger,
	}
}

var (
	sharedWidgetOnce sync.Once
	sharedWidget     *WidgetManager
)

// SharedWidgetManager returns the singleton manager, constructing it on
// first call. Later calls ignore the arguments.
func SharedWidgetManager(sdk adapter.WidgetSDK, publicKey string, logger *zerolog.Logger) *WidgetManager {
	sharedWidgetOnce.Do(func() {
		sharedWidget = NewWidgetManager(sdk, publicKey, logger)
	})
	return sharedWidget
}

// Initialize performs the SDK handshake exactly once. Concurrent calls
// made while the handshake is in flight wait for its outcome instead of
// starting a second one.
func (m *WidgetManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case WidgetReady, WidgetButtonMounted:
		m.mu.Unlock()
		return nil
	case WidgetInitializing:
		done := m.initDone
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
		err := m.initErr
		m.mu.Unlock()
		return err
	}
	m.state = WidgetInitializing
	m.initDone = make(chan struct{})
	done := m.initDone
	m.mu.Unlock()

	err := m.sdk.Initialize(ctx, m.publicKey)

	m.mu.Lock()
	if err != nil {
		m.state = WidgetUninitialized
		m.initErr = fmt.Errorf("%w: %v", domain.ErrWidgetInit, err)
		metrics.IncWidgetFallback()
	} else {
		m.state = WidgetReady
		m.initErr = nil
	}
	out := m.initErr
	close(done)
	m.mu.Unlock()
	return out
}

// CreateButton mounts the widget into a container, or — when the
// container already holds one — rebinds the submit callback and nothing
// else. The existence check and the mount reservation happen under one
// lock so racing callers cannot double-mount.
func (m *WidgetManager) CreateButton(ctx context.Context, containerID string, init adapter.WalletInit, onSubmit SubmitFunc) error {
	if containerID == "" || onSubmit == nil {
		return domain.ErrInvalidArgument
	}

	m.mu.Lock()
	if m.state != WidgetReady && m.state != WidgetButtonMounted {
		m.mu.Unlock()
		return domain.ErrWidgetInit
	}
	if b, ok := m.mounted[containerID]; ok {
		b.onSubmit = onSubmit
		m.mu.Unlock()
		m.log.Debug().Str("container", containerID).Msg("widget already mounted; callback rebound")
		return nil
	}
	// Reserve the slot before releasing the lock: a concurrent call now
	// takes the rebind path above.
	button := &mountedButton{onSubmit: onSubmit}
	m.mounted[containerID] = button
	m.mu.Unlock()

	// Stray nodes from a previous partial render would make the SDK
	// append a duplicate control.
	if err := m.sdk.ClearContainer(ctx, containerID); err != nil {
		m.unmount(containerID)
		return fmt.Errorf("%w: %v", domain.ErrWidgetInit, err)
	}
	if err := m.sdk.CreateWallet(ctx, containerID, init); err != nil {
		m.unmount(containerID)
		metrics.IncWidgetFallback()
		return fmt.Errorf("%w: %v", domain.ErrWidgetInit, err)
	}

	m.mu.Lock()
	m.state = WidgetButtonMounted
	m.mu.Unlock()
	metrics.IncWidgetMount()
	m.log.Info().Str("container", containerID).Msg("payment widget mounted")
	return nil
}

// Submit runs the container's current callback — the one most recently
// bound, regardless of when the widget was mounted.
func (m *WidgetManager) Submit(ctx context.Context, containerID string) (string, error) {
	m.mu.Lock()
	b, ok := m.mounted[containerID]
	if !ok {
		m.mu.Unlock()
		return "", domain.ErrWidgetNotMounted
	}
	fn := b.onSubmit
	m.mu.Unlock()
	return fn(ctx)
}

// MountCount reports how many containers hold a widget.
func (m *WidgetManager) MountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mounted)
}

func (m *WidgetManager) State() WidgetState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *WidgetManager) unmount(containerID string) {
	m.mu.Lock()
	delete(m.mounted, containerID)
	m.mu.Unlock()
}
