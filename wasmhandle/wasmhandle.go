package wasmhandle

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/lifetime/auto"
	"github.com/wippyai/lifetime/box"
	"github.com/wippyai/lifetime/cleanup"
	"github.com/wippyai/lifetime/resource"
)

// Config holds configuration for runtimes and the handles around them.
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// Label prefixes handle labels; module handles are labelled Label/name.
	Label string

	Policy   box.Policy
	Table    *resource.Table
	Registry auto.Registry
	Logger   *zap.Logger
}

// DefaultConfig returns the default box policy with no table or safety net.
func DefaultConfig() *Config {
	return &Config{
		Label:  "wasm",
		Policy: box.DefaultPolicy(),
	}
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) boxConfig(label string) *box.Config {
	return &box.Config{
		Policy:   c.Policy,
		Label:    label,
		Table:    c.Table,
		Registry: c.Registry,
	}
}

func (c *Config) label(name string) string {
	if c.Label == "" {
		return name
	}
	return c.Label + "/" + name
}

// NewRuntime creates a wazero runtime owned by a box. Disposing the box
// closes the runtime and every module instantiated in it.
func NewRuntime(ctx context.Context, cfg *Config) *box.Box[wazero.Runtime] {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	return box.NewWithConfig(rt, cleanup.FromContextCloser(rt), cfg.boxConfig(cfg.label("runtime")))
}

// Compile compiles wasm in rt and boxes the result. rt stays borrowed while
// the compiler runs.
func Compile(ctx context.Context, rt *box.Box[wazero.Runtime], name string, wasm []byte, cfg *Config) (*box.Box[wazero.CompiledModule], error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	b, err := rt.Borrow()
	if err != nil {
		return nil, err
	}
	defer b.Return(ctx)

	r := b.MustGet()
	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	return box.NewWithConfig(compiled, cleanup.FromContextCloser(compiled), cfg.boxConfig(cfg.label(name+".compiled"))), nil
}

// Instantiate instantiates compiled in rt under name and boxes the module.
// Both rt and compiled stay borrowed while wazero instantiates.
func Instantiate(ctx context.Context, rt *box.Box[wazero.Runtime], compiled *box.Box[wazero.CompiledModule], name string, cfg *Config) (*box.Box[api.Module], error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	rb, err := rt.Borrow()
	if err != nil {
		return nil, err
	}
	defer rb.Return(ctx)

	cb, err := compiled.Borrow()
	if err != nil {
		return nil, err
	}
	defer cb.Return(ctx)

	modConfig := wazero.NewModuleConfig().WithName(name)
	mod, err := rb.MustGet().InstantiateModule(ctx, cb.MustGet(), modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", name, err)
	}

	return box.NewWithConfig(mod, cleanup.FromContextCloser(mod), cfg.boxConfig(cfg.label(name))), nil
}
