package adapter

import "context"

// WalletInit configures a wallet-brick mount. Exactly one of
// PreferenceID or RedirectMode is set: a concrete preference binds the
// button to an amount, redirect mode defers preference creation to the
// submit callback.
type WalletInit struct {
	PreferenceID string
	RedirectMode string // e.g. "modal" | "self"
}

// WidgetSDK is the hex port for the provider's embeddable payment
// widget. Implementations own the provider handshake and per-container
// render state; lifecycle rules (single mount, callback rebinding) are
// enforced above this port, never inside it.
type WidgetSDK interface {
	// Initialize performs the provider SDK handshake. Called once per
	// process; repeat calls are the caller's bug to prevent.
	Initialize(ctx context.Context, publicKey string) error

	// CreateWallet mounts a wallet button into the container.
	CreateWallet(ctx context.Context, containerID string, init WalletInit) error

	// ClearContainer removes stray render state left by a previous
	// partial mount so the provider cannot append a duplicate control.
	ClearContainer(ctx context.Context, containerID string) error
}
