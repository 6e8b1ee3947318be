package migrate

import (
	"fmt"
	"strings"

	"github.com/skemadb/skema/internal/ir"
)

// Resolve applies migrations in order to an empty schema and returns
// the resulting IR. A nil schema (with nil error) means there were no
// migrations and there is nothing to generate.
//
// The schema's version is the sequence number of the last applied
// migration.
func Resolve(migrations []Migration) (*ir.Schema, error) {
	if len(migrations) == 0 {
		return nil, nil
	}

	schema := &ir.Schema{}
	for _, m := range migrations {
		for i, op := range m.Ops {
			if err := apply(schema, op); err != nil {
				return nil, fmt.Errorf("migration %q (seq %d) op %d (%s): %w", m.Name, m.Seq, i, opName(op), err)
			}
		}
		schema.Version = m.Seq
	}
	return schema, nil
}

func apply(schema *ir.Schema, op Op) error {
	switch o := op.(type) {
	case CreateCollection:
		if _, ok := findCollection(schema, o.Collection); ok {
			return fmt.Errorf("collection %q already exists", o.Collection)
		}
		schema.Collections = append(schema.Collections, ir.Collection{
			Name: o.Collection,
			Def:  ir.CollectionDef{Schema: o.Schema, Rules: o.Rules},
		})
		return nil

	case DeleteCollection:
		idx, ok := findCollection(schema, o.Collection)
		if !ok {
			return fmt.Errorf("collection %q does not exist", o.Collection)
		}
		schema.Collections = append(schema.Collections[:idx], schema.Collections[idx+1:]...)
		return nil

	case SetAttribute:
		return updateCollectionTree(schema, o.Collection, o.Path, func(parent *ir.Tree, key string) error {
			upsertProperty(parent, key, o.Attr)
			return nil
		})

	case RemoveAttribute:
		return updateCollectionTree(schema, o.Collection, o.Path, func(parent *ir.Tree, key string) error {
			if !removeProperty(parent, key) {
				return fmt.Errorf("attribute %q does not exist", key)
			}
			return nil
		})

	case SetOptional:
		return updateCollectionTree(schema, o.Collection, o.Path, func(parent *ir.Tree, key string) error {
			attr, ok := parent.Get(key)
			if !ok {
				return fmt.Errorf("attribute %q does not exist", key)
			}
			if _, isRelation := attr.(ir.Relation); isRelation && o.Optional {
				return fmt.Errorf("relation %q cannot be optional", key)
			}
			setOptionalKey(parent, key, o.Optional)
			return nil
		})

	case SetRules:
		idx, ok := findCollection(schema, o.Collection)
		if !ok {
			return fmt.Errorf("collection %q does not exist", o.Collection)
		}
		schema.Collections[idx].Def.Rules = o.Rules
		return nil

	default:
		return fmt.Errorf("unknown op type %T", op)
	}
}

func findCollection(schema *ir.Schema, name string) (int, bool) {
	for i := range schema.Collections {
		if schema.Collections[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// updateCollectionTree applies fn to the tree containing the final
// segment of a dot-separated path inside the named collection.
func updateCollectionTree(schema *ir.Schema, collection, path string, fn func(parent *ir.Tree, key string) error) error {
	idx, ok := findCollection(schema, collection)
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	if path == "" {
		return fmt.Errorf("empty attribute path")
	}

	segments := strings.Split(path, ".")
	updated, err := updateTree(schema.Collections[idx].Def.Schema, segments, fn)
	if err != nil {
		return err
	}
	schema.Collections[idx].Def.Schema = updated
	return nil
}

// updateTree descends record attributes along the path segments,
// applies fn at the final segment's container, and writes the modified
// subtrees back up. Trees and records are value types, so each level
// is copied out, edited, and stored back.
func updateTree(tree ir.Tree, segments []string, fn func(parent *ir.Tree, key string) error) (ir.Tree, error) {
	if len(segments) == 1 {
		if err := fn(&tree, segments[0]); err != nil {
			return tree, err
		}
		return tree, nil
	}

	seg := segments[0]
	for i, p := range tree.Properties {
		if p.Key != seg {
			continue
		}
		rec, ok := p.Attr.(ir.Record)
		if !ok {
			return tree, fmt.Errorf("path segment %q is not a record", seg)
		}
		inner, err := updateTree(rec.Properties, segments[1:], fn)
		if err != nil {
			return tree, err
		}
		rec.Properties = inner
		tree.Properties[i].Attr = rec
		return tree, nil
	}
	return tree, fmt.Errorf("path segment %q does not exist", seg)
}

// upsertProperty replaces an existing property in place, preserving
// its declaration position, or appends a new one.
func upsertProperty(tree *ir.Tree, key string, attr ir.Attribute) {
	for i, p := range tree.Properties {
		if p.Key == key {
			tree.Properties[i].Attr = attr
			return
		}
	}
	tree.Properties = append(tree.Properties, ir.Property{Key: key, Attr: attr})
}

// removeProperty deletes a property and its optional flag.
func removeProperty(tree *ir.Tree, key string) bool {
	for i, p := range tree.Properties {
		if p.Key == key {
			tree.Properties = append(tree.Properties[:i], tree.Properties[i+1:]...)
			setOptionalKey(tree, key, false)
			return true
		}
	}
	return false
}

// setOptionalKey adds or removes a key in the tree's optional set.
func setOptionalKey(tree *ir.Tree, key string, optional bool) {
	for i, k := range tree.Optional {
		if k == key {
			if !optional {
				tree.Optional = append(tree.Optional[:i], tree.Optional[i+1:]...)
			}
			return
		}
	}
	if optional {
		tree.Optional = append(tree.Optional, key)
	}
}
