// Package types defines the shared domain records of the
// temporal-pattern analytics engine: ledger events with uncertain
// dates, reusable pattern templates, strength-weighted pattern links,
// current-state indicators, immutable forecast scenarios and tracked
// forecast records, along with the computed result models the engines
// return.
package types
