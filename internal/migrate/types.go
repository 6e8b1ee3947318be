package migrate

import (
	"fmt"

	"github.com/skemadb/skema/internal/ir"
)

// Migration is one compiled migration record.
type Migration struct {
	// ID uniquely identifies the migration. Assigned at compile time
	// when the source file omits it.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Seq orders migrations. Unique across a migrations directory.
	Seq int64 `json:"seq"`

	// Ops are applied in declaration order.
	Ops []Op `json:"ops"`

	// Source is the file the migration was compiled from.
	Source string `json:"source,omitempty"`
}

// Op is a sealed interface over migration operations.
// Only the op types in this file implement it.
type Op interface {
	op() // Sealed - only these types implement it
}

// CreateCollection adds a new collection with a full attribute tree
// and optional rules.
type CreateCollection struct {
	Collection string
	Schema     ir.Tree
	Rules      ir.Value // nil when absent
}

func (CreateCollection) op() {}

// DeleteCollection removes a collection.
type DeleteCollection struct {
	Collection string
}

func (DeleteCollection) op() {}

// SetAttribute upserts one attribute at a dot-separated path inside a
// collection's tree. Intermediate path segments must be records.
type SetAttribute struct {
	Collection string
	Path       string
	Attr       ir.Attribute
}

func (SetAttribute) op() {}

// RemoveAttribute deletes the attribute at a dot-separated path,
// clearing its optional flag in the containing tree.
type RemoveAttribute struct {
	Collection string
	Path       string
}

func (RemoveAttribute) op() {}

// SetOptional marks or clears a property's entry in its container's
// optional set. The property itself is untouched.
type SetOptional struct {
	Collection string
	Path       string
	Optional   bool
}

func (SetOptional) op() {}

// SetRules replaces a collection's opaque rules block. A nil Rules
// clears it.
type SetRules struct {
	Collection string
	Rules      ir.Value
}

func (SetRules) op() {}

// opName returns an op's wire name, for diagnostics and
// fingerprinting.
func opName(o Op) string {
	switch o.(type) {
	case CreateCollection:
		return "create_collection"
	case DeleteCollection:
		return "delete_collection"
	case SetAttribute:
		return "set_attribute"
	case RemoveAttribute:
		return "remove_attribute"
	case SetOptional:
		return "set_optional"
	case SetRules:
		return "set_rules"
	default:
		return fmt.Sprintf("unknown(%T)", o)
	}
}

// Fingerprint computes the content-addressed fingerprint of a
// migration: its name, sequence and every op in order. Used by the
// status store to detect drift between recorded and on-disk
// migrations.
func Fingerprint(m Migration) (string, error) {
	v, err := migrationValue(m)
	if err != nil {
		return "", fmt.Errorf("migration %q: %w", m.Name, err)
	}
	return ir.HashValue(ir.DomainMigration, v)
}

func migrationValue(m Migration) (ir.Value, error) {
	ops := make(ir.Array, len(m.Ops))
	for i, o := range m.Ops {
		ov, err := opValue(o)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, opName(o), err)
		}
		ops[i] = ov
	}
	return ir.Object{
		ir.F("name", ir.String(m.Name)),
		ir.F("seq", ir.Int(m.Seq)),
		ir.F("ops", ops),
	}, nil
}

func opValue(o Op) (ir.Value, error) {
	switch op := o.(type) {
	case CreateCollection:
		tree, err := ir.TreeValue(op.Schema)
		if err != nil {
			return nil, err
		}
		obj := ir.Object{
			ir.F("op", ir.String("create_collection")),
			ir.F("collection", ir.String(op.Collection)),
			ir.F("schema", tree),
		}
		if op.Rules != nil {
			obj = append(obj, ir.F("rules", op.Rules))
		}
		return obj, nil
	case DeleteCollection:
		return ir.Object{
			ir.F("op", ir.String("delete_collection")),
			ir.F("collection", ir.String(op.Collection)),
		}, nil
	case SetAttribute:
		attr, err := ir.AttributeValue(op.Attr)
		if err != nil {
			return nil, err
		}
		return ir.Object{
			ir.F("op", ir.String("set_attribute")),
			ir.F("collection", ir.String(op.Collection)),
			ir.F("path", ir.String(op.Path)),
			ir.F("attr", attr),
		}, nil
	case RemoveAttribute:
		return ir.Object{
			ir.F("op", ir.String("remove_attribute")),
			ir.F("collection", ir.String(op.Collection)),
			ir.F("path", ir.String(op.Path)),
		}, nil
	case SetOptional:
		return ir.Object{
			ir.F("op", ir.String("set_optional")),
			ir.F("collection", ir.String(op.Collection)),
			ir.F("path", ir.String(op.Path)),
			ir.F("optional", ir.Bool(op.Optional)),
		}, nil
	case SetRules:
		obj := ir.Object{
			ir.F("op", ir.String("set_rules")),
			ir.F("collection", ir.String(op.Collection)),
		}
		if op.Rules != nil {
			obj = append(obj, ir.F("rules", op.Rules))
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unknown op type %T", o)
	}
}
