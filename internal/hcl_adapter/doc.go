// Package hcl_adapter loads block files written in HCL into profiles.
//
// A block file describes one container. Its top level may declare component
// types (with their packaged profiles), child components and containers,
// references to packaged profiles, includes of other block files, exported
// services and runtime targets. Children keep their source order, which is
// the declaration order the assembly engine and the startup ordering rely on.
//
// The Loader also implements model.BlockResolver, so include and compose
// directives are resolved relative to the file that declares them.
package hcl_adapter
