// Package aggregates owns transaction boundaries for invariant-critical writes.
//
// Aggregates compose table-level repos from internal/data/repos, run them inside
// one TxRunner transaction and map infrastructure failures onto ErrorCode values.
package aggregates
