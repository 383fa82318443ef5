// Package metrics defines the Prometheus instruments for the side-effect
// pipeline and the HTTP handler that exposes them.
//
// Instruments are registered on the default registry through promauto, so
// importing the package is enough to have them served on /metrics.
package metrics
