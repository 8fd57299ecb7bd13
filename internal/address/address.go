package address

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// Separator delimits path segments.
	Separator = "/"
	// Root is the partition of the outermost container.
	Root = "/"
)

var (
	// ErrAboveRoot is returned when a relative path climbs past the root partition.
	ErrAboveRoot = errors.New("path escapes the root partition")
	// ErrInvalidSegment is returned for malformed segment names.
	ErrInvalidSegment = errors.New("invalid path segment")
)

// segmentRegex matches a single model name.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return segmentRegex.MatchString(name)
}

// ValidateName reports whether name can be used as a model name.
func ValidateName(name string) error {
	if !isValidSegmentName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSegment, name)
	}
	return nil
}

// Address is the structured form of a path.
type Address struct {
	Absolute bool
	Segments []string
}

// Parse splits a path into its segments. Relative markers "." and ".." are
// kept as segments; every other segment must be a valid model name. The empty
// string parses to an empty relative address.
func Parse(raw string) (*Address, error) {
	addr := &Address{}
	if raw == "" {
		return addr, nil
	}
	if strings.HasPrefix(raw, Separator) {
		addr.Absolute = true
		raw = strings.TrimPrefix(raw, Separator)
	}
	raw = strings.TrimSuffix(raw, Separator)
	if raw == "" {
		return addr, nil
	}
	for _, segment := range strings.Split(raw, Separator) {
		switch {
		case segment == "":
			return nil, fmt.Errorf("%w: path %q contains an empty segment", ErrInvalidSegment, raw)
		case segment == "." || segment == "..":
		case !isValidSegmentName(segment):
			return nil, fmt.Errorf("%w: %q", ErrInvalidSegment, segment)
		}
		addr.Segments = append(addr.Segments, segment)
	}
	return addr, nil
}

// String serializes the Address back into path form.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	s := strings.Join(a.Segments, Separator)
	if a.Absolute {
		return Separator + s
	}
	return s
}

// Equal checks for deep equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.Absolute != other.Absolute || len(a.Segments) != len(other.Segments) {
		return false
	}
	for i := range a.Segments {
		if a.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// Join returns the path of the model name inside partition.
func Join(partition, name string) string {
	return partition + name
}

// ChildPartition returns the partition owned by the container name inside partition.
func ChildPartition(partition, name string) string {
	return partition + name + Separator
}

// Parent returns the partition enclosing partition.
func Parent(partition string) (string, error) {
	if partition == Root || partition == "" {
		return "", ErrAboveRoot
	}
	trimmed := strings.TrimSuffix(partition, Separator)
	i := strings.LastIndex(trimmed, Separator)
	if i < 0 {
		return "", fmt.Errorf("%w: %q is not a partition", ErrInvalidSegment, partition)
	}
	return trimmed[:i+1], nil
}

// PartitionOf returns the partition that contains the model at path.
func PartitionOf(path string) string {
	if path == Root {
		return Root
	}
	i := strings.LastIndex(strings.TrimSuffix(path, Separator), Separator)
	if i < 0 {
		return Root
	}
	return path[:i+1]
}

// Resolve converts path into an absolute model path, interpreting relative
// forms against partition. The result never ends with a separator unless it
// is the root.
func Resolve(partition, path string) (string, error) {
	switch {
	case strings.HasPrefix(path, Separator):
		if _, err := Parse(path); err != nil {
			return "", err
		}
		return path, nil
	case path == "..":
		parent, err := Parent(partition)
		if err != nil {
			return "", err
		}
		return containerPath(parent), nil
	case strings.HasPrefix(path, "../"):
		parent, err := Parent(partition)
		if err != nil {
			return "", fmt.Errorf("resolving %q against %q: %w", path, partition, err)
		}
		return Resolve(parent, strings.TrimPrefix(path, "../"))
	case path == "." || path == "":
		return containerPath(partition), nil
	case strings.HasPrefix(path, "./"):
		return Resolve(partition, strings.TrimPrefix(path, "./"))
	}
	if _, err := Parse(path); err != nil {
		return "", err
	}
	return strings.TrimSuffix(partition+path, Separator), nil
}

// containerPath returns the path of the container owning partition.
func containerPath(partition string) string {
	if partition == Root {
		return Root
	}
	return strings.TrimSuffix(partition, Separator)
}

// Split separates the first segment of a relative path from the remainder.
func Split(path string) (head, rest string) {
	head, rest, _ = strings.Cut(path, Separator)
	return head, rest
}

// CommonPartition returns the deepest partition enclosing both paths.
func CommonPartition(a, b string) string {
	pa, pb := PartitionOf(a), PartitionOf(b)
	common := Root
	sa := strings.Split(strings.Trim(pa, Separator), Separator)
	sb := strings.Split(strings.Trim(pb, Separator), Separator)
	for i := 0; i < len(sa) && i < len(sb); i++ {
		if sa[i] == "" || sa[i] != sb[i] {
			break
		}
		common += sa[i] + Separator
	}
	return common
}

// LocalName returns the first segment of path below partition, i.e. the
// name of the node in partition's graph that contains path. The second
// result is false when path does not lie inside partition.
func LocalName(partition, path string) (string, bool) {
	if !strings.HasPrefix(path, partition) || path == partition {
		return "", false
	}
	head, _ := Split(strings.TrimPrefix(path, partition))
	return head, head != ""
}
