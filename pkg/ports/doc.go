/*
Package ports defines the driven ports (interfaces) for the muster coordinator.

These interfaces decouple the coordinator from external implementations, allowing
it to work with any chat platform, storage backend or locking service.

# Key Interfaces

  - Gateway: Message I/O and channel creation on the chat platform (e.g., Discord or Memory).
  - PermissionGrantor: Resolves the audience of a private game channel.
  - SessionStore: Responsible for holding the Session of each scope.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
