/*
Package observability turns session lifecycle hooks into metrics and logs.

Metrics registers Prometheus collectors and exposes them as a
domain.LifecycleHooks value; LoggingHooks does the same for slog. Chain
combines several hook sets so a session can feed both.
*/
package observability
