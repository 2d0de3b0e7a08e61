package wasmhandle

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/lifetime/box"
	"github.com/wippyai/lifetime/stack"
)

// Host owns a runtime and everything loaded into it.
type Host struct {
	runtime *box.Box[wazero.Runtime]
	modules *stack.Stack
	cfg     Config
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewHost creates a host with a fresh runtime. A nil cfg means DefaultConfig.
func NewHost(ctx context.Context, cfg *Config) *Host {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Host{
		runtime: NewRuntime(ctx, cfg),
		modules: stack.NewWithConfig(&stack.Config{
			Label: cfg.label("modules"),
			Table: cfg.Table,
		}),
		cfg:    *cfg,
		logger: cfg.logger(),
	}
}

// Runtime returns the box owning the host's runtime.
func (h *Host) Runtime() *box.Box[wazero.Runtime] {
	return h.runtime
}

// Load compiles and instantiates wasm under name. The host closes both the
// compiled module and the instance on Close; the caller may dispose the
// returned box earlier. Loads are serialized.
func (h *Host) Load(ctx context.Context, name string, wasm []byte) (*box.Box[api.Module], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	compiled, err := Compile(ctx, h.runtime, name, wasm, &h.cfg)
	if err != nil {
		return nil, err
	}
	if err := h.modules.Push(compiled); err != nil {
		_ = compiled.Dispose(ctx)
		return nil, err
	}

	mod, err := Instantiate(ctx, h.runtime, compiled, name, &h.cfg)
	if err != nil {
		return nil, err
	}
	if err := h.modules.Push(mod); err != nil {
		_ = mod.Dispose(ctx)
		return nil, err
	}

	h.logger.Debug("module loaded",
		zap.String("name", name),
		zap.Int("size", len(wasm)))
	return mod, nil
}

// Modules returns the number of handles the host will close.
func (h *Host) Modules() int {
	return h.modules.Len()
}

// Close closes every loaded module, newest first, then the runtime. Every
// close is attempted and the first error returned. Later calls do nothing.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	if err := h.modules.Dispose(ctx); err != nil {
		h.logger.Warn("close modules", zap.Error(err))
		firstErr = err
	}
	if err := h.runtime.Dispose(ctx); err != nil {
		h.logger.Warn("close runtime", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Dispose is Close, so a Host can be pushed onto a stack.Stack.
func (h *Host) Dispose(ctx context.Context) error {
	return h.Close(ctx)
}
