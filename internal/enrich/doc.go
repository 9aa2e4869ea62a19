// Package enrich is the business boundary for the alert pipeline: it admits
// inbound alerts (synchronous audit insert, asynchronous dispatch) and runs
// the per-record enrichment and delivery workflow that happens after the
// provider has already been acknowledged.
package enrich
