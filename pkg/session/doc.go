/*
Package session runs many independent machine instances ("sessions") from one
shared configuration.

Each session is a statenode.Node persisted under its session ID. The Manager
serializes access per session with reference-counted local locks and, when a
DistributedLocker is configured, with a cross-replica lock around every operation.
*/
package session
