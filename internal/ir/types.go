package ir

// Schema is the resolved schema for one project: the result of
// applying an ordered list of migrations. It is constructed once per
// invocation, consumed read-only by the serializer, and discarded.
type Schema struct {
	Version     int64        `json:"version"`
	Collections []Collection `json:"collections"`
}

// Collection is one named collection in declaration order.
type Collection struct {
	Name string        `json:"name"`
	Def  CollectionDef `json:"def"`
}

// CollectionDef holds a collection's attribute tree and its optional
// access-rules block. Rules are never interpreted, only echoed into
// the generated source.
type CollectionDef struct {
	Schema Tree  `json:"schema"`
	Rules  Value `json:"rules,omitempty"`
}

// Tree is an ordered set of attribute properties plus the optional-key
// set declared at this level. A property's optional status is looked
// up in its container's Optional set, not stored on the attribute.
type Tree struct {
	Properties []Property `json:"properties"`
	Optional   []string   `json:"optional,omitempty"`
}

// Property is one named attribute in declaration order.
type Property struct {
	Key  string    `json:"key"`
	Attr Attribute `json:"attr"`
}

// IsOptional reports whether key is in this tree's optional set.
func (t Tree) IsOptional(key string) bool {
	for _, k := range t.Optional {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the attribute for key and whether it is present.
func (t Tree) Get(key string) (Attribute, bool) {
	for _, p := range t.Properties {
		if p.Key == key {
			return p.Attr, true
		}
	}
	return nil, false
}

// Attribute is a sealed interface over attribute definition variants.
// Only Primitive, Set, Record, and Relation implement it.
type Attribute interface {
	attribute() // Sealed - only these types implement it
}

// Kind is the primitive attribute kind.
type Kind string

const (
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindDate    Kind = "date"
)

// ValidKinds defines the allowed primitive kinds.
var ValidKinds = map[Kind]bool{
	KindString:  true,
	KindBoolean: true,
	KindNumber:  true,
	KindDate:    true,
}

// Primitive is a scalar attribute of one of the four built-in kinds.
type Primitive struct {
	Kind    Kind         `json:"kind"`
	Options ValueOptions `json:"options"`
}

func (Primitive) attribute() {}

// Set is a homogeneous collection of primitive items.
// Items cannot be optional; the item type is always rendered bare.
type Set struct {
	Item    Primitive    `json:"item"`
	Options ValueOptions `json:"options"`
}

func (Set) attribute() {}

// Record is a nested attribute tree. The mapping is a tree: arbitrary
// nesting depth, no cycles.
type Record struct {
	Properties Tree `json:"properties"`
}

func (Record) attribute() {}

// Cardinality is the relation cardinality.
type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// Relation references another collection through a query.
// Relations never carry ValueOptions and are excluded from optionality
// rendering.
type Relation struct {
	Cardinality Cardinality `json:"cardinality"`
	Target      string      `json:"target"`
	Query       Query       `json:"query"`
}

func (Relation) attribute() {}

// Query is a relation subquery. Absent fields are omitted from the
// generated source entirely, never rendered as null or empty.
type Query struct {
	Where []WhereClause `json:"where,omitempty"`
	Limit *int64        `json:"limit,omitempty"`
	Order []OrderClause `json:"order,omitempty"`
}

// WhereClause is one [field, operator, value] filter triple.
type WhereClause struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value Value  `json:"value"`
}

// OrderClause is one [field, direction] ordering pair.
type OrderClause struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// IsByID reports whether a one-cardinality relation's query is the
// canonical by-id shorthand: exactly one equality filter on "id", no
// limit, no order. Such relations render in the compact form.
func (r Relation) IsByID() bool {
	if r.Cardinality != One {
		return false
	}
	q := r.Query
	if len(q.Where) != 1 || q.Limit != nil || len(q.Order) != 0 {
		return false
	}
	w := q.Where[0]
	return w.Field == "id" && w.Op == "="
}

// ValueOptions carries per-attribute value constraints.
// Nullable renders only when explicitly set; Default only when present.
type ValueOptions struct {
	Nullable *bool   `json:"nullable,omitempty"`
	Default  Default `json:"default,omitempty"`
}

// IsZero reports whether no option is set, in which case the type
// constructor is rendered with zero argument groups.
func (o ValueOptions) IsZero() bool {
	return o.Nullable == nil && o.Default == nil
}

// Default is a sealed interface over default-value variants.
// Only DefaultLiteral and DefaultCall implement it.
type Default interface {
	defaultValue() // Sealed - only these types implement it
}

// DefaultLiteral is a literal default (string, number, boolean or null).
type DefaultLiteral struct {
	Value Value `json:"value"`
}

func (DefaultLiteral) defaultValue() {}

// DefaultCall is a default-value function call.
// Only the names in DefaultFunctions are valid; anything else is a
// data-integrity violation surfaced by the encoder.
type DefaultCall struct {
	Name string  `json:"name"`
	Args []Value `json:"args,omitempty"`
}

func (DefaultCall) defaultValue() {}

// DefaultFunctions is the fixed allow-list of default-value functions.
var DefaultFunctions = map[string]bool{
	"now":  true,
	"uuid": true,
}
