// Package pipeline turns committed mutations into their side effects.
//
// Every entry point returns an Effect rather than an error: side effects
// run after the triggering request has been answered, so their failures are
// recorded and logged but never surface to the caller that made the change.
// Rule engine writes do not produce new mutation events, so rules cannot
// trigger each other.
package pipeline
