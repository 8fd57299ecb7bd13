// Package cli builds the composegrid command tree, validates user input, and
// maps failures to process exit codes. It translates CLI flags into the
// kernel's configuration.
package cli
