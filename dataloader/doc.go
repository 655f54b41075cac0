// Package dataloader drives a source-rooted pipeline from one background
// worker and hands its output to a consumer one item at a time.
//
// A Loader owns the root stage. At most one load runs at a time; while it
// runs the stage belongs to the load and comes back through a one-slot
// mailbox when the load finishes, so the stage needs no lock. Produced items
// wait in a FIFO ready-queue that the Loader keeps topped up to BufferSize.
//
// Iteration is epoch based. Next returns ok == false once the queue and the
// stage are both drained; the stage has then been reset and the following
// call starts a new epoch.
//
//	loader, err := dataloader.New(p, dataloader.WithConfig(cfg))
//	for batch, err := range loader.Epoch(ctx) {
//	    ...
//	}
//
// A failing or panicking load poisons the Loader: every later call returns a
// LOADER_POISONED error wrapping the cause.
package dataloader
