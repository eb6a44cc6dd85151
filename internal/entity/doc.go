// Package entity defines the core vocabulary of the runtime: entity
// identity, the durable state cell, the operation envelope, the handler
// contract with its per-operation context, and the operation error
// taxonomy.
//
// Nothing here schedules or persists anything. The scheduler package owns
// sequencing, the lifecycle package owns materialize/commit, and the
// registry package owns dispatch; they all speak in these types.
package entity
