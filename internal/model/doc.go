// Package model defines the constrained JSON value domain shared by event
// payloads and document snapshots, together with its canonical (RFC 8785)
// serialization.
//
// Values are deliberately narrower than JSON: floats are rejected
// everywhere. Event payloads are the replay identity of the whole system,
// and float formatting is not portable across devices. Quantities that
// look fractional (money, durations) are carried as integers.
//
// Canonical bytes are the unit of structural equality: two documents are
// the same document iff their canonical serializations are byte-identical.
package model
