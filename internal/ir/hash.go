package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainSchema    = "skema/schema/v1"
	DomainMigration = "skema/migration/v1"
)

// HashValue computes a SHA-256 fingerprint of a canonical value with
// domain separation. Format: SHA256(domain + 0x00 + canonical JSON).
// The null byte separator prevents domain/data boundary ambiguity.
func HashValue(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("HashValue: failed to marshal: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SchemaFingerprint computes the content-addressed fingerprint of a
// resolved schema. Structurally equal schemas always produce the same
// fingerprint; it is stamped into the generated module header.
func SchemaFingerprint(s *Schema) (string, error) {
	v, err := schemaValue(s)
	if err != nil {
		return "", err
	}
	return HashValue(DomainSchema, v)
}

// schemaValue converts a Schema into a Value tree for canonical
// marshaling. Ordered slices become arrays so declaration order is
// part of the fingerprint.
func schemaValue(s *Schema) (Value, error) {
	collections := make(Array, len(s.Collections))
	for i, c := range s.Collections {
		def, err := collectionValue(c.Def)
		if err != nil {
			return nil, fmt.Errorf("collection %q: %w", c.Name, err)
		}
		collections[i] = Object{
			F("name", String(c.Name)),
			F("def", def),
		}
	}
	return Object{
		F("version", Int(s.Version)),
		F("collections", collections),
	}, nil
}

func collectionValue(def CollectionDef) (Value, error) {
	tree, err := TreeValue(def.Schema)
	if err != nil {
		return nil, err
	}
	obj := Object{F("schema", tree)}
	if def.Rules != nil {
		obj = append(obj, F("rules", def.Rules))
	}
	return obj, nil
}

// TreeValue converts an attribute tree into a Value for canonical
// marshaling. Also used by the migrate package to fingerprint ops.
func TreeValue(t Tree) (Value, error) {
	props := make(Array, len(t.Properties))
	for i, p := range t.Properties {
		attr, err := AttributeValue(p.Attr)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Key, err)
		}
		props[i] = Object{
			F("key", String(p.Key)),
			F("attr", attr),
		}
	}
	obj := Object{F("properties", props)}
	if len(t.Optional) > 0 {
		optional := make(Array, len(t.Optional))
		for i, k := range t.Optional {
			optional[i] = String(k)
		}
		obj = append(obj, F("optional", optional))
	}
	return obj, nil
}

// AttributeValue converts an attribute definition into a Value tree.
// Also used by the migrate package to fingerprint migration ops.
func AttributeValue(attr Attribute) (Value, error) {
	switch a := attr.(type) {
	case Primitive:
		obj := Object{F("kind", String(a.Kind))}
		return appendOptionsValue(obj, a.Options), nil
	case Set:
		item, err := AttributeValue(a.Item)
		if err != nil {
			return nil, err
		}
		obj := Object{
			F("kind", String("set")),
			F("item", item),
		}
		return appendOptionsValue(obj, a.Options), nil
	case Record:
		tree, err := TreeValue(a.Properties)
		if err != nil {
			return nil, err
		}
		return Object{
			F("kind", String("record")),
			F("properties", tree),
		}, nil
	case Relation:
		obj := Object{
			F("kind", String("relation")),
			F("cardinality", String(a.Cardinality)),
			F("target", String(a.Target)),
		}
		return append(obj, F("query", queryValue(a.Query))), nil
	default:
		return nil, fmt.Errorf("unknown attribute type: %T", attr)
	}
}

func appendOptionsValue(obj Object, o ValueOptions) Object {
	if o.Nullable != nil {
		obj = append(obj, F("nullable", Bool(*o.Nullable)))
	}
	switch d := o.Default.(type) {
	case nil:
	case DefaultLiteral:
		obj = append(obj, F("default", d.Value))
	case DefaultCall:
		args := make(Array, len(d.Args))
		copy(args, d.Args)
		obj = append(obj, F("default", Object{
			F("call", String(d.Name)),
			F("args", args),
		}))
	}
	return obj
}

func queryValue(q Query) Value {
	obj := Object{}
	if len(q.Where) > 0 {
		where := make(Array, len(q.Where))
		for i, w := range q.Where {
			where[i] = Array{String(w.Field), String(w.Op), w.Value}
		}
		obj = append(obj, F("where", where))
	}
	if q.Limit != nil {
		obj = append(obj, F("limit", Int(*q.Limit)))
	}
	if len(q.Order) > 0 {
		order := make(Array, len(q.Order))
		for i, o := range q.Order {
			order[i] = Array{String(o.Field), String(o.Direction)}
		}
		obj = append(obj, F("order", order))
	}
	return obj
}
