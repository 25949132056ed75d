// Package embedding turns record and query text into vectors and caches
// them by content hash.
//
// The cache is keyed by the SHA-256 of the exact text, independent of the
// record that owns it, so an unchanged record never pays for a second
// embedding call and two records with identical text share one entry.
//
//	svc, err := embedding.NewService(provider.Embedder(), cacheStore, records)
//	vector := svc.GetOrCreate(ctx, text, core.ContentTypeStory, id)
//	updated, err := svc.UpdateRecord(ctx, record, false)
//
// Upstream failures never escape as errors: Generate and GetOrCreate return
// nil and log. UpdateRecord only returns an error when persisting the new
// embedding fails.
package embedding
