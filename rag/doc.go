// Package rag answers family-knowledge questions by retrieval-augmented generation.
//
// A request moves through classify, retrieve, build context, then either
// generate (when context was found) or fall back to a canned localized answer.
// Generation failures take the same fallback path as empty retrieval, so
// callers see a single degraded mode. GenerateResponse never returns an error:
// anything unexpected becomes an "error" intent response.
//
// Example:
//
//	orch, err := rag.NewOrchestrator(searcher, provider.ChatModel())
//	if err != nil {
//	    return err
//	}
//	resp := orch.GenerateResponse(ctx, "What did grandma cook for New Year?")
//	fmt.Println(resp.Response, resp.Metadata.Confidence)
package rag
