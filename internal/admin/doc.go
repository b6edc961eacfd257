// Package admin serves the HTTP control surface of a tagwire node: health,
// Prometheus metrics, the field table and live handler rebinding.
package admin
