// Package ir provides the intermediate representation of a resolved
// database schema.
//
// This package contains type definitions plus canonical serialization
// and hashing. All other internal packages import ir; ir imports
// nothing internal. This ensures IR remains the foundational layer
// with no circular dependencies.
//
// Key design constraints:
//   - Ordering is significant everywhere: collections, properties and
//     object fields keep their declaration order, so ordered slices are
//     used instead of maps.
//   - Optionality lives on the container, never on the attribute: a
//     Tree carries the optional-key set for its own properties. An
//     attribute does not know whether it is optional.
//   - Opaque values (collection rules, default literals, where-clause
//     operands) use the sealed Value interface, never `any`.
package ir
