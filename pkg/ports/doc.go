/*
Package ports defines the driven ports (interfaces) of the statenode engine.

These interfaces decouple the lifecycle controller from external implementations,
allowing a machine to persist its state in memory, on disk or in Redis.

# Key Interfaces

  - StateStore: loads and saves the Snapshot of a machine instance.
  - DistributedLocker: serializes access to a session across replicas.
*/
package ports
