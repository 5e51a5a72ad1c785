// Package ledger tracks the Year/Month containers of an organized tree during
// one run and decides where each asset is placed.
//
// A Ledger is loaded from the existing tree, then receives assets one at a
// time in source order. An asset dated inside the trust window is placed
// directly; an asset that looks older than what is already organized is put
// to an interact.Policy, which may accept it, skip it or supply a manual date.
//
// Records are plain values in maps keyed by year and month; nothing holds a
// pointer to its parent. A Ledger is not safe for concurrent use.
package ledger
