// Package runtime drives render passes: the per-pass state machine, the
// chunk pump that feeds output consumers and the registry of live stream
// handles.
package runtime
