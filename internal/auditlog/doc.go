// Package auditlog defines the durable record of every admitted alert and
// its processing outcome. It holds the domain model, the Store interface
// (persistence), and the set-once update semantics that keep a later stage's
// failure from erasing an earlier stage's success.
package auditlog
