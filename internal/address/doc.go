// Package address implements the partition path grammar used to name and
// locate deployment models.
//
// A partition is the namespace of one containment scope. The root partition
// is "/", and every nested container adds its name and a trailing separator,
// so a container "web" inside the root owns the partition "/web/". A model's
// path is its partition followed by its name: "/web/server".
//
// Relative paths are interpreted against a partition:
//
//	""          the partition itself
//	/x          absolute, starting from the root
//	../x        x starting from the parent partition
//	./x         x starting from the partition
//	x           a direct child
//	x/y         y inside the child container x
package address
