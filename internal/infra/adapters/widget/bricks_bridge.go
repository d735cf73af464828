package widget

import (
	"context"
	"sync"

	"vpn-storefront/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.WidgetSDK = (*BricksBridge)(nil)

// Command is one instruction for the storefront page. The browser owns
// the actual MercadoPago Bricks SDK; the server stays the authority on
// when a wallet may exist and what preference it binds to, and the page
// drains this queue to mirror that state in the DOM.
type Command struct {
	Op           string `json:"op"` // "init" | "mount" | "clear"
	ContainerID  string `json:"container_id,omitempty"`
	PublicKey    string `json:"public_key,omitempty"`
	PreferenceID string `json:"preference_id,omitempty"`
	RedirectMode string `json:"redirect_mode,omitempty"`
}

// BricksBridge implements adapter.WidgetSDK by queueing commands that
// the page polls for. Queue depth is bounded; a page that stopped
// polling drops oldest-first.
type BricksBridge struct {
	mu       sync.Mutex
	commands []Command
	log      *zerolog.Logger
}

const maxQueuedCommands = 64

func NewBricksBridge(logger *zerolog.Logger) *BricksBridge {
	return &BricksBridge{log: logger}
}

func (b *BricksBridge) push(cmd Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.commands) >= maxQueuedCommands {
		b.commands = b.commands[1:]
	}
	b.commands = append(b.commands, cmd)
}

func (b *BricksBridge) Initialize(ctx context.Context, publicKey string) error {
	b.push(Command{Op: "init", PublicKey: publicKey})
	return nil
}

func (b *BricksBridge) CreateWallet(ctx context.Context, containerID string, init adapter.WalletInit) error {
	b.push(Command{
		Op:           "mount",
		ContainerID:  containerID,
		PreferenceID: init.PreferenceID,
		RedirectMode: init.RedirectMode,
	})
	return nil
}

func (b *BricksBridge) ClearContainer(ctx context.Context, containerID string) error {
	b.push(Command{Op: "clear", ContainerID: containerID})
	return nil
}

// Drain returns and clears the queued commands. Called by the widget
// command endpoint on every poll.
func (b *BricksBridge) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.commands
	b.commands = nil
	return out
}
