/*
Package ports defines the driven ports (interfaces) of Quire.

These interfaces decouple sessions from the engines and storage they rely on,
so the reconciliation algorithm, the layout/paint engine and the persistence
backend can each be swapped independently.

# Key Interfaces

  - Reconciler: Mounts a container and applies descriptions to it.
  - Renderer: Runs one render pass and returns its byte stream.
  - BlobSink: Accumulates a byte stream into a downloadable object.
  - DocumentStore: Persists descriptions for hosts serving many documents.
  - DocumentLoader: Builds descriptions from external sources.
  - DistributedLocker: Provides distributed locking for concurrent document access.
*/
package ports
