// Package fetch downloads structure files from the public structure
// databases.
//
// Two sources are supported: [RCSBClient] pulls deposited mmCIF entries
// from the RCSB PDB by 4-character code, and [AFDBClient] pulls predicted
// models (and their PAE matrices) from the AlphaFold Database by UniProt
// accession.
//
// Both clients share [Client], which layers response caching and retry
// with exponential backoff over net/http. Downloads are cached as raw
// file bytes; deposited entries are immutable, so the default TTL is
// generous. Pass refresh=true to any fetch method to bypass the cache.
//
// Transient failures (connection errors, 5xx) are retried automatically.
// Missing entries map to a STRUCTURE_NOT_FOUND error and HTTP 429 to
// [errors.RateLimitedError], so callers can distinguish "no such entry"
// from "slow down" without inspecting status codes.
package fetch
