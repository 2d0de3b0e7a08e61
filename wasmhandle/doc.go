// Package wasmhandle holds wazero runtimes and modules in lifetime handles.
//
// A wazero.Runtime, a wazero.CompiledModule and an api.Module each need one
// Close. Here each one lives in a box.Box whose release closes it, so it is
// closed exactly once whichever path disposes it first.
//
// Compile and Instantiate borrow the runtime box for the duration of the call:
// a runtime cannot be disposed out from under a compilation, and a Dispose
// issued meanwhile runs when the borrow returns.
//
//	host := wasmhandle.NewHost(ctx, nil)
//	defer host.Close(ctx)
//
//	mod, err := host.Load(ctx, "math", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	b, _ := mod.Borrow()
//	m, _ := b.Get()
//	results, err := m.ExportedFunction("add").Call(ctx, 2, 3)
//	b.Return(ctx)
//
// Host keeps every loaded module on a stack.Stack and closes them in reverse
// load order before closing the runtime.
package wasmhandle
