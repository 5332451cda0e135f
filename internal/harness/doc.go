// Package harness runs conformance scenarios against the confession ledger.
//
// A scenario is a YAML file: a named sequence of publish/react/comment steps
// with per-step expected outcomes, followed by assertions on the final store
// state. Each run uses a fresh in-memory database, a fixed clock, and a
// sequential token generator, so a scenario always produces the same trace.
//
// Steps refer to posts by their owner's label rather than by derived address.
// Labels keep scenario files and golden traces readable and hand-writable;
// the harness resolves a label to its derived address when executing a step.
package harness
