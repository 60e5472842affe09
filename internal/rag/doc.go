// Package rag implements the retrieval-augmented answer pipeline for
// TechNova's support assistant.
//
// Offline, the Ingestor splits the policy document into section-labeled,
// overlapping chunks, embeds each one, and writes them to the chunk store
// in bounded batches.
//
// Online, the Chain answers one question at a time:
//
//	START → GATING → {REFUSING | RETRIEVING → ANSWERING} → DONE
//
// The domain gate decides whether the question concerns TechNova's
// products, deliveries, warranties or policy FAQ. In-domain questions are
// embedded, matched against the chunk store, and answered strictly from
// the retrieved context with positional footnote citations. Out-of-domain
// questions get a polite Swedish refusal without any retrieval.
//
// All external calls are sequential within a request and never retried;
// any failure aborts the request and propagates to the caller.
package rag
