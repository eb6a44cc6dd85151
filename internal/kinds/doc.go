// Package kinds provides the built-in fixture entity kinds: counter,
// stringstore, and phonebook on flat dispatch; stringstore2 and textstore
// on structured capability-set dispatch. They double as executable
// documentation of the two registration styles and as the kinds the CLI
// and scenario harness run against.
package kinds
