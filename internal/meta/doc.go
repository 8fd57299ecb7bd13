// Package meta holds the read-only type descriptors that describe what a
// component type offers and what it needs: the services it provides, the
// services it depends on, the lifecycle stages it requires, the extensions
// it implements for other types, and the context entries it expects.
//
// Descriptors are plain values. They are produced by a loader, registered
// in a catalog, and consumed by the assembly engine without modification.
package meta
