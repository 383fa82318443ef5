// Package notify decides who is told about a mutation and how.
//
// The Dispatcher persists an in-app notification, pushes it over the
// real-time transport and, when the recipient's preferences allow it, hands a
// rendered email to the delivery queue. Only the in-app record is required to
// succeed; push and email failures are logged and never retract it.
//
// The PreferenceResolver turns a user's nullable email switches into a
// delivery decision. A switch left unset falls back to the category default,
// which is on for everything except status changes.
package notify
