// Package diag defines the diagnostic model shared by the tree reader,
// the analysis passes and the driver.
//
// Diagnostic is the central record: a Severity, a numeric Code with a
// stable string form (codes.go), a short Message, the Primary span and
// optional Notes pointing at related locations.
//
// Passes emit through a Reporter so that emission is decoupled from
// storage. BagReporter collects into a Bag, which supports limiting
// and sorting. Rendering lives in internal/diagfmt.
package diag
