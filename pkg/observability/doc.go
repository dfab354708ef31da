/*
Package observability provides lifecycle hooks for monitoring machine nodes.

Metrics exposes Prometheus counters for transitions, rejections, emissions and
store failures; LogHooks writes an audit trail of the same events through slog.
Both produce domain.LifecycleHooks that can be merged and passed to a node.
*/
package observability
