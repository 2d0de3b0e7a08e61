// Package resource tracks live lifetime handles.
//
// Every handle in this module can report to a Table. The table assigns each
// live handle an integer ID, counts its outstanding borrows, and notifies
// observers as the handle moves through its lifecycle.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	conn := box.NewWithConfig(c, cleanup.FromCloser(c), &box.Config{
//	    Policy: box.DefaultPolicy(),
//	    Label:  "db-conn",
//	    Table:  table,
//	})
//
//	table.Len()   // 1
//	conn.Dispose(ctx)
//	table.Len()   // 0
//
// # Lifecycle Events
//
//	EventCreated       handle constructed
//	EventBorrowed      borrow lent out (nested borrows count too)
//	EventReturned      borrow returned
//	EventDropDeferred  dispose queued behind a borrow
//	EventCloned        reference count incremented
//	EventUnref         reference count decremented, still shared
//	EventMoved         ownership moved to a new handle (terminal)
//	EventUnwrapped     value handed to the caller (terminal)
//	EventDropped       release ran (terminal)
//	EventFinalized     released by the GC safety net (terminal)
//	EventDetached      safety net disarmed, value handed back (terminal)
//
// A terminal event frees the ID. A moved handle's successor gets a new ID.
//
// # Observers
//
//	table.Subscribe(resource.NewLogObserver(logger))
//
// # Leak Reports
//
// Close stops tracking and returns an *errors.LeakError naming every handle
// that was never released. Tests use it as a leak check:
//
//	defer func() {
//	    if err := table.Close(); err != nil {
//	        t.Error(err)
//	    }
//	}()
package resource
