package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/google/uuid"

	"github.com/skemadb/skema/internal/ir"
)

// CompileError represents a migration compilation error with an
// optional CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir compiles every .cue file in dir into a migration, one
// migration per file, and returns them sorted by sequence number.
// Duplicate sequence numbers are an error. An empty or missing
// directory yields an empty list, not an error: nothing to generate.
func LoadDir(dir string) ([]Migration, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accessing migrations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning migrations directory: %w", err)
	}

	ctx := cuecontext.New()
	var migrations []Migration
	seen := make(map[int64]string)

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".cue" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		m, err := CompileFile(ctx, path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[m.Seq]; dup {
			return nil, fmt.Errorf("duplicate migration seq %d in %s and %s", m.Seq, prev, path)
		}
		seen[m.Seq] = path
		migrations = append(migrations, *m)
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Seq < migrations[j].Seq })
	return migrations, nil
}

// CompileFile compiles a single migration file.
func CompileFile(ctx *cue.Context, path string) (*Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("migration"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "migration",
			Message: fmt.Sprintf("no migration declared in %s", path),
			Pos:     v.Pos(),
		}
	}

	m, err := CompileMigration(root)
	if err != nil {
		return nil, err
	}
	m.Source = path
	return m, nil
}

// CompileMigration parses a CUE value into a Migration.
// The value should be the migration struct itself:
//
//	migration: {
//		name: "create users"
//		seq:  1
//		ops: [
//			{ op: "create_collection", collection: "users", schema: {...} },
//		]
//	}
func CompileMigration(v cue.Value) (*Migration, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Migration{}

	// id is optional; assigned when absent so the status store always
	// has a stable key.
	idVal := v.LookupPath(cue.ParsePath("id"))
	if idVal.Exists() {
		id, err := idVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.ID = id
	} else {
		m.ID = uuid.NewString()
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{Field: "name", Message: "name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m.Name = name

	seqVal := v.LookupPath(cue.ParsePath("seq"))
	if !seqVal.Exists() {
		return nil, &CompileError{Field: "seq", Message: "seq is required", Pos: v.Pos()}
	}
	seq, err := seqVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	m.Seq = seq

	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{Field: "ops", Message: "ops is required", Pos: v.Pos()}
	}
	iter, err := opsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		op, err := parseOp(iter.Value())
		if err != nil {
			return nil, err
		}
		m.Ops = append(m.Ops, op)
	}
	if len(m.Ops) == 0 {
		return nil, &CompileError{Field: "ops", Message: "at least one op is required", Pos: v.Pos()}
	}

	return m, nil
}

func parseOp(v cue.Value) (Op, error) {
	kind, err := requireString(v, "op")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "create_collection":
		collection, err := requireString(v, "collection")
		if err != nil {
			return nil, err
		}
		tree, err := parseTree(v.LookupPath(cue.ParsePath("schema")))
		if err != nil {
			return nil, err
		}
		op := CreateCollection{Collection: collection, Schema: tree}
		rulesVal := v.LookupPath(cue.ParsePath("rules"))
		if rulesVal.Exists() {
			rules, err := parseValue(rulesVal)
			if err != nil {
				return nil, err
			}
			op.Rules = rules
		}
		return op, nil

	case "delete_collection":
		collection, err := requireString(v, "collection")
		if err != nil {
			return nil, err
		}
		return DeleteCollection{Collection: collection}, nil

	case "set_attribute":
		collection, err := requireString(v, "collection")
		if err != nil {
			return nil, err
		}
		path, err := requireString(v, "path")
		if err != nil {
			return nil, err
		}
		attrVal := v.LookupPath(cue.ParsePath("attr"))
		if !attrVal.Exists() {
			return nil, &CompileError{Field: "attr", Message: "attr is required", Pos: v.Pos()}
		}
		attr, err := parseAttribute(attrVal)
		if err != nil {
			return nil, err
		}
		return SetAttribute{Collection: collection, Path: path, Attr: attr}, nil

	case "remove_attribute":
		collection, err := requireString(v, "collection")
		if err != nil {
			return nil, err
		}
		path, err := requireString(v, "path")
		if err != nil {
			return nil, err
		}
		return RemoveAttribute{Collection: collection, Path: path}, nil

	case "set_optional":
		collection, err := requireString(v, "collection")
		if err != nil {
			return nil, err
		}
		path, err := requireString(v, "path")
		if err != nil {
			return nil, err
		}
		optVal := v.LookupPath(cue.ParsePath("optional"))
		if !optVal.Exists() {
			return nil, &CompileError{Field: "optional", Message: "optional is required", Pos: v.Pos()}
		}
		optional, err := optVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return SetOptional{Collection: collection, Path: path, Optional: optional}, nil

	case "set_rules":
		collection, err := requireString(v, "collection")
		if err != nil {
			return nil, err
		}
		op := SetRules{Collection: collection}
		rulesVal := v.LookupPath(cue.ParsePath("rules"))
		if rulesVal.Exists() {
			rules, err := parseValue(rulesVal)
			if err != nil {
				return nil, err
			}
			op.Rules = rules
		}
		return op, nil

	default:
		return nil, &CompileError{
			Field:   "op",
			Message: fmt.Sprintf("unknown op %q", kind),
			Pos:     v.Pos(),
		}
	}
}

// parseTree parses an attribute tree: a properties struct in
// declaration order plus an optional key list.
func parseTree(v cue.Value) (ir.Tree, error) {
	tree := ir.Tree{}
	if !v.Exists() {
		return tree, nil
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if propsVal.Exists() {
		iter, err := propsVal.Fields()
		if err != nil {
			return tree, formatCUEError(err)
		}
		for iter.Next() {
			attr, err := parseAttribute(iter.Value())
			if err != nil {
				return tree, err
			}
			tree.Properties = append(tree.Properties, ir.Property{
				Key:  iter.Selector().Unquoted(),
				Attr: attr,
			})
		}
	}

	optVal := v.LookupPath(cue.ParsePath("optional"))
	if optVal.Exists() {
		iter, err := optVal.List()
		if err != nil {
			return tree, formatCUEError(err)
		}
		for iter.Next() {
			key, err := iter.Value().String()
			if err != nil {
				return tree, formatCUEError(err)
			}
			tree.Optional = append(tree.Optional, key)
		}
	}

	// Caller contract from here on: every optional key names a sibling
	// property. Enforced at the producer, not defensively downstream.
	for _, key := range tree.Optional {
		if _, ok := tree.Get(key); !ok {
			return tree, &CompileError{
				Field:   "optional",
				Message: fmt.Sprintf("optional key %q has no matching property", key),
				Pos:     v.Pos(),
			}
		}
	}

	return tree, nil
}

// parseAttribute parses one attribute definition. The kind field
// selects the variant; options (nullable, default) sit on the same
// level as kind.
func parseAttribute(v cue.Value) (ir.Attribute, error) {
	kind, err := requireString(v, "kind")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "string", "boolean", "number", "date":
		opts, err := parseOptions(v)
		if err != nil {
			return nil, err
		}
		return ir.Primitive{Kind: ir.Kind(kind), Options: opts}, nil

	case "set":
		itemVal := v.LookupPath(cue.ParsePath("item"))
		if !itemVal.Exists() {
			return nil, &CompileError{Field: "item", Message: "set requires an item type", Pos: v.Pos()}
		}
		item, err := parseAttribute(itemVal)
		if err != nil {
			return nil, err
		}
		prim, ok := item.(ir.Primitive)
		if !ok {
			return nil, &CompileError{Field: "item", Message: "set items must be primitive", Pos: itemVal.Pos()}
		}
		opts, err := parseOptions(v)
		if err != nil {
			return nil, err
		}
		return ir.Set{Item: prim, Options: opts}, nil

	case "record":
		tree, err := parseTree(v)
		if err != nil {
			return nil, err
		}
		return ir.Record{Properties: tree}, nil

	case "relation":
		cardinality, err := requireString(v, "cardinality")
		if err != nil {
			return nil, err
		}
		if cardinality != string(ir.One) && cardinality != string(ir.Many) {
			return nil, &CompileError{
				Field:   "cardinality",
				Message: fmt.Sprintf("cardinality must be %q or %q, got %q", ir.One, ir.Many, cardinality),
				Pos:     v.Pos(),
			}
		}
		target, err := requireString(v, "target")
		if err != nil {
			return nil, err
		}
		query, err := parseQuery(v.LookupPath(cue.ParsePath("query")))
		if err != nil {
			return nil, err
		}
		return ir.Relation{
			Cardinality: ir.Cardinality(cardinality),
			Target:      target,
			Query:       query,
		}, nil

	default:
		return nil, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown attribute kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

func parseOptions(v cue.Value) (ir.ValueOptions, error) {
	var opts ir.ValueOptions

	nullableVal := v.LookupPath(cue.ParsePath("nullable"))
	if nullableVal.Exists() {
		nullable, err := nullableVal.Bool()
		if err != nil {
			return opts, formatCUEError(err)
		}
		opts.Nullable = &nullable
	}

	defaultVal := v.LookupPath(cue.ParsePath("default"))
	if defaultVal.Exists() {
		def, err := parseDefault(defaultVal)
		if err != nil {
			return opts, err
		}
		opts.Default = def
	}

	return opts, nil
}

// parseDefault parses a default: either a scalar literal or a
// { call: "now" | "uuid", args: [...] } struct. The call name is
// validated later by the encoder; the compiler only shapes the data.
func parseDefault(v cue.Value) (ir.Default, error) {
	callVal := v.LookupPath(cue.ParsePath("call"))
	if callVal.Exists() {
		name, err := callVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		call := ir.DefaultCall{Name: name}
		argsVal := v.LookupPath(cue.ParsePath("args"))
		if argsVal.Exists() {
			iter, err := argsVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for iter.Next() {
				arg, err := parseValue(iter.Value())
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
			}
		}
		return call, nil
	}

	value, err := parseValue(v)
	if err != nil {
		return nil, err
	}
	return ir.DefaultLiteral{Value: value}, nil
}

func parseQuery(v cue.Value) (ir.Query, error) {
	var q ir.Query
	if !v.Exists() {
		return q, nil
	}

	whereVal := v.LookupPath(cue.ParsePath("where"))
	if whereVal.Exists() {
		iter, err := whereVal.List()
		if err != nil {
			return q, formatCUEError(err)
		}
		for iter.Next() {
			clause, err := parseWhereClause(iter.Value())
			if err != nil {
				return q, err
			}
			q.Where = append(q.Where, clause)
		}
	}

	limitVal := v.LookupPath(cue.ParsePath("limit"))
	if limitVal.Exists() {
		limit, err := limitVal.Int64()
		if err != nil {
			return q, formatCUEError(err)
		}
		q.Limit = &limit
	}

	orderVal := v.LookupPath(cue.ParsePath("order"))
	if orderVal.Exists() {
		iter, err := orderVal.List()
		if err != nil {
			return q, formatCUEError(err)
		}
		for iter.Next() {
			pair, err := parseOrderClause(iter.Value())
			if err != nil {
				return q, err
			}
			q.Order = append(q.Order, pair)
		}
	}

	return q, nil
}

// parseWhereClause parses one [field, operator, value] triple.
func parseWhereClause(v cue.Value) (ir.WhereClause, error) {
	var clause ir.WhereClause

	iter, err := v.List()
	if err != nil {
		return clause, formatCUEError(err)
	}
	var elems []cue.Value
	for iter.Next() {
		elems = append(elems, iter.Value())
	}
	if len(elems) != 3 {
		return clause, &CompileError{
			Field:   "where",
			Message: fmt.Sprintf("where clause must be a [field, operator, value] triple, got %d elements", len(elems)),
			Pos:     v.Pos(),
		}
	}

	if clause.Field, err = elems[0].String(); err != nil {
		return clause, formatCUEError(err)
	}
	if clause.Op, err = elems[1].String(); err != nil {
		return clause, formatCUEError(err)
	}
	if clause.Value, err = parseValue(elems[2]); err != nil {
		return clause, err
	}
	return clause, nil
}

// parseOrderClause parses one [field, direction] pair.
func parseOrderClause(v cue.Value) (ir.OrderClause, error) {
	var clause ir.OrderClause

	iter, err := v.List()
	if err != nil {
		return clause, formatCUEError(err)
	}
	var elems []cue.Value
	for iter.Next() {
		elems = append(elems, iter.Value())
	}
	if len(elems) != 2 {
		return clause, &CompileError{
			Field:   "order",
			Message: fmt.Sprintf("order clause must be a [field, direction] pair, got %d elements", len(elems)),
			Pos:     v.Pos(),
		}
	}

	if clause.Field, err = elems[0].String(); err != nil {
		return clause, formatCUEError(err)
	}
	if clause.Direction, err = elems[1].String(); err != nil {
		return clause, formatCUEError(err)
	}
	return clause, nil
}

// parseValue converts a concrete CUE value into an ir.Value,
// preserving struct field order.
func parseValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Float(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var arr ir.Array
		for iter.Next() {
			elem, err := parseValue(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if arr == nil {
			arr = ir.Array{}
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var obj ir.Object
		for iter.Next() {
			val, err := parseValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj = append(obj, ir.F(iter.Selector().Unquoted(), val))
		}
		if obj == nil {
			obj = ir.Object{}
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func requireString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError extracts the first positioned error from a CUE error
// chain.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return firstErr
}
