// Package kinfolk is a semantic memory for family knowledge: stories,
// events, heritage and health records.
//
// Database is the composition root. It opens the BadgerDB record store and
// builds, in order, the embedding cache, the AI provider, the embedding
// service, the ingestion pipeline (whose post-save hook keeps embeddings
// current), the searcher and the answer orchestrator.
//
//	db, err := kinfolk.NewDatabase("./family.db", kinfolk.WithAIConfig(config))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.Save(ctx, &core.Story{Title: "Grandma's Dumplings", Content: "..."})
//	results, err := db.Searcher().SemanticSearch(ctx, "traditional cooking recipes")
//	answer := db.RAG().GenerateResponse(ctx, "What did grandma cook for New Year?")
package kinfolk
