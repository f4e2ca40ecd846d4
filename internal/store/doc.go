// Package store defines interfaces for run-bookkeeping persistence.
// Implementations live in other packages; this package must not import
// database drivers or concrete clients.
package store
