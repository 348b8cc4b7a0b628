// Package pipeline runs signing requests through a sequence of steps.
//
// A single request flows through steps such as share-text extraction,
// signature computation, URL rewriting and ms_token generation. Each step
// receives the accumulating model.SignResult and may fill in fields of it.
//
// BatchSigner runs one pipeline per target concurrently, bounded with
// errgroup.SetLimit, and returns results in input order. A failing target
// records its error in its own result and does not abort the batch.
package pipeline
