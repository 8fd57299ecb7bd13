// Package profile defines the declarative profiles and directives that say
// how components and containers should be instantiated.
//
// Profiles are a closed set of variants: Component, Containment,
// NamedComponent, BlockInclude and BlockComposition. Each implements the
// Profile interface; the Kind method identifies the variant so consumers can
// switch on it. Profile values are read-only once built.
package profile
