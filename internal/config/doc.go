// Package config loads the runtime settings of the composegrid host. Values
// are layered: built-in defaults, an optional config file, COMPOSEGRID_
// environment variables, then command-line flags.
package config
