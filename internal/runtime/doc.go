// Package runtime is the "instantiate from profile" capability of the
// component container.
//
// The Registry maps component type names to Go factories and context entry
// type keys to entry builders. Modules populate it at startup through the
// Module interface; the kernel then copies the declared types into the
// catalog and hands the Registry to the model tree as its Activator and
// EntryFactory.
//
// During activation the registry runs, in order: the context strategy
// provider's Contextualizer, the component factory's Create, and the Create
// hook of every stage Extension. Deactivation unwinds the stages in reverse
// and finally calls the factory's Destroy.
package runtime
