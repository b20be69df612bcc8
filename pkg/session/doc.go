/*
Package session hosts many quire sessions by document ID.

A Manager keeps one live Session per ID and serializes every operation on
that ID, with an in-process lock and, optionally, a distributed one so
several replicas can share a store. Descriptions are persisted through a
ports.DocumentStore, so a restarted host restores sessions lazily on first
access ("Stop & Resume"). Callbacks are not persisted.
*/
package session
