// Package kernel hosts a deployment. It loads a block, registers the
// component types of the compiled-in modules, builds and commissions the
// model tree, serves introspection over HTTP, and decommissions the tree on
// shutdown. It is decoupled from any specific entrypoint like a CLI.
package kernel
