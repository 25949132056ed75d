// Package reembed refreshes the stored embeddings of existing records.
//
// A run walks each record kind, hands the records that need work to
// embedding.Service.BulkUpdate, reports progress to a writer and saves a
// checkpoint with the outcome per kind. Force mode recomputes every record,
// which is how a corpus moves to a new embedding model. Reads from the store
// are retried with exponential backoff; embedding calls are not.
package reembed
