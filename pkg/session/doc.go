/*
Package session implements per-scope session access for the coordinator.

It serializes every read-modify-write of a scope's Session, combining ref-counted
in-process mutexes with an optional distributed lock so several bot replicas can
share one store without racing each other.
*/
package session
