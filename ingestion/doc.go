// Package ingestion saves family records and runs post-write hooks on them.
//
// Hooks are registered by the composition root. The embedding service
// registers one that refreshes a record's embedding after every save, with
// force set when the record was just created. A hook that fails or panics
// is logged; the write it follows is never undone.
//
// By default hooks run synchronously inside Save. WithPoolSize moves them
// onto an ants worker pool; pooled hooks see a copy of the record reloaded
// from the store, and Drain waits for outstanding hooks.
package ingestion
