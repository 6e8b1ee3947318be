package codegen

import (
	"fmt"
	"strings"

	"github.com/skemadb/skema/internal/ir"
)

// kindConstructors maps primitive kinds to builder constructor names.
var kindConstructors = map[ir.Kind]string{
	ir.KindString:  "String",
	ir.KindBoolean: "Boolean",
	ir.KindNumber:  "Number",
	ir.KindDate:    "Date",
}

// EncodeAttribute renders one attribute node as a builder expression.
// optional is the flag looked up in the container's optional set; the
// node itself carries no optionality.
func EncodeAttribute(attr ir.Attribute, optional bool) (string, error) {
	w := &sourceWriter{}
	if err := encodeAttribute(w, attr, optional); err != nil {
		return "", err
	}
	return w.String(), nil
}

// encodeAttribute is the single dispatch point for all attribute
// variants. Every variant except Relation is wrapped in the optional
// marker when optional is true; relations are excluded from
// optionality rendering.
func encodeAttribute(w *sourceWriter, attr ir.Attribute, optional bool) error {
	if _, isRelation := attr.(ir.Relation); optional && !isRelation {
		w.write("s.Optional(")
		if err := encodeAttributeBare(w, attr); err != nil {
			return err
		}
		w.write(")")
		return nil
	}
	return encodeAttributeBare(w, attr)
}

func encodeAttributeBare(w *sourceWriter, attr ir.Attribute) error {
	switch a := attr.(type) {
	case ir.Primitive:
		return encodePrimitive(w, a)
	case ir.Set:
		return encodeSet(w, a)
	case ir.Record:
		return encodeRecord(w, a)
	case ir.Relation:
		return encodeRelation(w, a)
	default:
		return unknownAttributeKind("unrecognized attribute variant %T", attr)
	}
}

func encodePrimitive(w *sourceWriter, p ir.Primitive) error {
	ctor, ok := kindConstructors[p.Kind]
	if !ok {
		return unknownAttributeKind("unrecognized primitive kind %q", p.Kind)
	}
	opts, err := EncodeValueOptions(p.Options)
	if err != nil {
		return fmt.Errorf("%s attribute: %w", p.Kind, err)
	}
	if opts == "" {
		w.writef("s.%s()", ctor)
	} else {
		w.writef("s.%s({ %s })", ctor, opts)
	}
	return nil
}

// encodeSet renders a set attribute. The item type is always encoded
// without the optional wrapper: sets cannot contain optional elements.
func encodeSet(w *sourceWriter, set ir.Set) error {
	w.write("s.Set(")
	if err := encodePrimitive(w, set.Item); err != nil {
		return err
	}
	opts, err := EncodeValueOptions(set.Options)
	if err != nil {
		return fmt.Errorf("set attribute: %w", err)
	}
	if opts != "" {
		w.writef(", { %s }", opts)
	}
	w.write(")")
	return nil
}

// encodeRecord renders a nested record, one property per line.
// Each child's optional flag is looked up in this record's tree, not
// on the child itself.
func encodeRecord(w *sourceWriter, rec ir.Record) error {
	w.write("s.Record(")
	if err := encodeTree(w, rec.Properties); err != nil {
		return err
	}
	w.write(")")
	return nil
}

// encodeTree renders an attribute tree as an object literal, one
// property per line in declaration order.
func encodeTree(w *sourceWriter, tree ir.Tree) error {
	if len(tree.Properties) == 0 {
		w.write("{}")
		return nil
	}
	w.write("{")
	w.newline()
	w.in()
	for _, prop := range tree.Properties {
		w.writef("%s: ", prop.Key)
		if err := encodeAttribute(w, prop.Attr, tree.IsOptional(prop.Key)); err != nil {
			return fmt.Errorf("property %q: %w", prop.Key, err)
		}
		w.write(",")
		w.newline()
	}
	w.out()
	w.write("}")
	return nil
}

func encodeRelation(w *sourceWriter, rel ir.Relation) error {
	if rel.IsByID() {
		id, err := EncodeLiteral(rel.Query.Where[0].Value)
		if err != nil {
			return fmt.Errorf("relation to %q: %w", rel.Target, err)
		}
		w.writef("s.RelationById(%s, %s)", quoteString(rel.Target), id)
		return nil
	}

	var ctor string
	switch rel.Cardinality {
	case ir.One:
		ctor = "RelationOne"
	case ir.Many:
		ctor = "RelationMany"
	default:
		return unknownAttributeKind("unrecognized relation cardinality %q", rel.Cardinality)
	}

	sub, err := encodeSubquery(rel.Query)
	if err != nil {
		return fmt.Errorf("relation to %q: %w", rel.Target, err)
	}
	w.writef("s.%s(%s, %s)", ctor, quoteString(rel.Target), sub)
	return nil
}

// encodeSubquery renders a relation query as an object literal of only
// the present fields. Absent fields are omitted entirely, never
// rendered as null or empty.
func encodeSubquery(q ir.Query) (string, error) {
	var parts []string

	if len(q.Where) > 0 {
		triples := make([]string, len(q.Where))
		for i, clause := range q.Where {
			value, err := EncodeLiteral(clause.Value)
			if err != nil {
				return "", fmt.Errorf("where[%d]: %w", i, err)
			}
			triples[i] = fmt.Sprintf("[%s, %s, %s]",
				quoteString(clause.Field), quoteString(clause.Op), value)
		}
		parts = append(parts, fmt.Sprintf("where: [%s]", strings.Join(triples, ", ")))
	}

	if q.Limit != nil {
		parts = append(parts, fmt.Sprintf("limit: %d", *q.Limit))
	}

	if len(q.Order) > 0 {
		pairs := make([]string, len(q.Order))
		for i, clause := range q.Order {
			pairs[i] = fmt.Sprintf("[%s, %s]",
				quoteString(clause.Field), quoteString(clause.Direction))
		}
		parts = append(parts, fmt.Sprintf("order: [%s]", strings.Join(pairs, ", ")))
	}

	if len(parts) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{ %s }", strings.Join(parts, ", ")), nil
}
