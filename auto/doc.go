// Package auto is the garbage-collector safety net for lifetime handles.
//
// A handle configured with a Registry arms an Anchor when it is created. If
// the handle becomes unreachable without being disposed, the registry runs
// its release action once, on a background goroutine, with
// context.Background(). Explicit disposal disarms the anchor first, so a
// handle released deterministically is never released again by the GC.
//
// The safety net is best effort. The runtime may run a finalizer late or not
// at all, and finalizers run in no particular order. Never rely on it for
// timely release; it exists to bound leaks.
//
// # Registries
//
//	auto.Runtime()              // runtime.AddCleanup
//	auto.NewManualRegistry()    // collected on demand, for tests
//
// A finalizer cannot report an error to anyone, so release failures and
// panics are logged through Logger() instead. Install a logger with
// SetLogger.
//
// # Auto
//
// Auto pairs a value with its release and arms the safety net on creation:
//
//	f := auto.New(file, cleanup.FromCloser(file))
//	defer f.Dispose(ctx)
//
// # Tick
//
// Tick releases its value after a delay unless the holder stops it first:
//
//	lease := auto.NewTick(conn, cleanup.FromCloser(conn), 30*time.Second)
//	...
//	conn, ok := lease.Stop() // keep it
package auto
