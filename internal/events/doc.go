// Package events carries task-collaboration mutations from the API layer to
// the side-effect pipeline.
//
// A MutationEvent names what happened (a task was created or updated, a
// comment was posted, a member was invited) and carries a JSON payload with
// the affected records. Emitters fan events out to registered handlers
// without knowing what those handlers do.
package events
