// Package cleanup defines the release action a handle runs when its resource
// reaches the end of its life.
//
// An Action is a single no-argument release. It is not idempotent: releasing
// twice runs the underlying function twice. Handles in this module call an
// Action at most once; wrap an Action with once.Action when the caller cannot
// promise that.
//
// Adapters cover the common shapes of release functions:
//
//	cleanup.Sync(func() { buf.Free() })
//	cleanup.Fallible(file.Close)                  // func() error
//	cleanup.FromCloser(file)                      // io.Closer
//	cleanup.FromContextCloser(module)             // Close(ctx) error, e.g. wazero api.Closer
//	cleanup.Async(func() <-chan error { ... })    // waits for completion or ctx
package cleanup
