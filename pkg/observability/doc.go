/*
Package observability provides tools for monitoring the muster coordinator.

It turns coordinator lifecycle hooks into Prometheus metrics and offers helpers to
combine several hook sets into one.
*/
package observability
