/*
Package observability turns engine lifecycle events into logs, Prometheus
metrics and OpenTelemetry spans.

Each helper returns a domain.LifecycleHooks value; combine several with
domain.ComposeHooks and pass the result to frame.WithLifecycleHooks.
*/
package observability
