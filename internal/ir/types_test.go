package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTree_IsOptional(t *testing.T) {
	tree := Tree{
		Properties: []Property{
			{Key: "name", Attr: Primitive{Kind: KindString}},
			{Key: "bio", Attr: Primitive{Kind: KindString}},
		},
		Optional: []string{"bio"},
	}

	assert.False(t, tree.IsOptional("name"))
	assert.True(t, tree.IsOptional("bio"))
	assert.False(t, tree.IsOptional("missing"))
}

func TestTree_Get(t *testing.T) {
	tree := Tree{
		Properties: []Property{
			{Key: "age", Attr: Primitive{Kind: KindNumber}},
		},
	}

	attr, ok := tree.Get("age")
	assert.True(t, ok)
	assert.Equal(t, Primitive{Kind: KindNumber}, attr)

	_, ok = tree.Get("name")
	assert.False(t, ok)
}

func TestRelation_IsByID(t *testing.T) {
	limit := int64(1)

	testCases := []struct {
		name     string
		relation Relation
		want     bool
	}{
		{
			name: "canonical by-id shorthand",
			relation: Relation{
				Cardinality: One,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{{Field: "id", Op: "=", Value: String("42")}},
				},
			},
			want: true,
		},
		{
			name: "many cardinality never shorthand",
			relation: Relation{
				Cardinality: Many,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{{Field: "id", Op: "=", Value: String("42")}},
				},
			},
			want: false,
		},
		{
			name: "limit disqualifies shorthand",
			relation: Relation{
				Cardinality: One,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{{Field: "id", Op: "=", Value: String("42")}},
					Limit: &limit,
				},
			},
			want: false,
		},
		{
			name: "order disqualifies shorthand",
			relation: Relation{
				Cardinality: One,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{{Field: "id", Op: "=", Value: String("42")}},
					Order: []OrderClause{{Field: "id", Direction: "asc"}},
				},
			},
			want: false,
		},
		{
			name: "wrong field",
			relation: Relation{
				Cardinality: One,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{{Field: "email", Op: "=", Value: String("x")}},
				},
			},
			want: false,
		},
		{
			name: "wrong operator",
			relation: Relation{
				Cardinality: One,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{{Field: "id", Op: "!=", Value: String("42")}},
				},
			},
			want: false,
		},
		{
			name: "extra where clause",
			relation: Relation{
				Cardinality: One,
				Target:      "users",
				Query: Query{
					Where: []WhereClause{
						{Field: "id", Op: "=", Value: String("42")},
						{Field: "active", Op: "=", Value: Bool(true)},
					},
				},
			},
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.relation.IsByID())
		})
	}
}

func TestValueOptions_IsZero(t *testing.T) {
	nullable := true

	assert.True(t, ValueOptions{}.IsZero())
	assert.False(t, ValueOptions{Nullable: &nullable}.IsZero())
	assert.False(t, ValueOptions{Default: DefaultLiteral{Value: Int(0)}}.IsZero())
	assert.False(t, ValueOptions{Default: DefaultCall{Name: "now"}}.IsZero())
}
