package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skemadb/skema/internal/ir"
)

func mustResolve(t *testing.T, ops ...Op) *ir.Schema {
	t.Helper()
	schema, err := Resolve([]Migration{{Name: "test", Seq: 1, Ops: ops}})
	require.NoError(t, err)
	require.NotNil(t, schema)
	return schema
}

func TestResolve_EmptyInput(t *testing.T) {
	schema, err := Resolve(nil)
	require.NoError(t, err)
	assert.Nil(t, schema)
}

func TestResolve_VersionTracksLastSeq(t *testing.T) {
	migrations := []Migration{
		{Name: "first", Seq: 1, Ops: []Op{
			CreateCollection{Collection: "users"},
		}},
		{Name: "second", Seq: 7, Ops: []Op{
			SetAttribute{Collection: "users", Path: "name", Attr: ir.Primitive{Kind: ir.KindString}},
		}},
	}

	schema, err := Resolve(migrations)
	require.NoError(t, err)
	assert.Equal(t, int64(7), schema.Version)
}

func TestResolve_CreateAndDeleteCollection(t *testing.T) {
	schema := mustResolve(t,
		CreateCollection{Collection: "users"},
		CreateCollection{Collection: "teams"},
		DeleteCollection{Collection: "users"},
	)

	require.Len(t, schema.Collections, 1)
	assert.Equal(t, "teams", schema.Collections[0].Name)
}

func TestResolve_SetAttributePreservesOrderOnReplace(t *testing.T) {
	schema := mustResolve(t,
		CreateCollection{Collection: "users"},
		SetAttribute{Collection: "users", Path: "name", Attr: ir.Primitive{Kind: ir.KindString}},
		SetAttribute{Collection: "users", Path: "age", Attr: ir.Primitive{Kind: ir.KindNumber}},
		// Replacing an attribute keeps its original position.
		SetAttribute{Collection: "users", Path: "name", Attr: ir.Primitive{Kind: ir.KindDate}},
	)

	tree := schema.Collections[0].Def.Schema
	require.Len(t, tree.Properties, 2)
	assert.Equal(t, "name", tree.Properties[0].Key)
	assert.Equal(t, ir.Primitive{Kind: ir.KindDate}, tree.Properties[0].Attr)
	assert.Equal(t, "age", tree.Properties[1].Key)
}

func TestResolve_NestedRecordPaths(t *testing.T) {
	schema := mustResolve(t,
		CreateCollection{Collection: "users"},
		SetAttribute{Collection: "users", Path: "profile", Attr: ir.Record{}},
		SetAttribute{Collection: "users", Path: "profile.bio", Attr: ir.Primitive{Kind: ir.KindString}},
		SetAttribute{Collection: "users", Path: "profile.links", Attr: ir.Record{}},
		SetAttribute{Collection: "users", Path: "profile.links.home", Attr: ir.Primitive{Kind: ir.KindString}},
		SetOptional{Collection: "users", Path: "profile.bio", Optional: true},
	)

	profile, ok := schema.Collections[0].Def.Schema.Get("profile")
	require.True(t, ok)
	rec, ok := profile.(ir.Record)
	require.True(t, ok)
	assert.True(t, rec.Properties.IsOptional("bio"))

	links, ok := rec.Properties.Get("links")
	require.True(t, ok)
	inner, ok := links.(ir.Record)
	require.True(t, ok)
	_, ok = inner.Properties.Get("home")
	assert.True(t, ok)
}

func TestResolve_SetOptionalToggles(t *testing.T) {
	schema := mustResolve(t,
		CreateCollection{Collection: "users"},
		SetAttribute{Collection: "users", Path: "nick", Attr: ir.Primitive{Kind: ir.KindString}},
		SetOptional{Collection: "users", Path: "nick", Optional: true},
		SetOptional{Collection: "users", Path: "nick", Optional: false},
		SetOptional{Collection: "users", Path: "nick", Optional: true},
		// A second true is a no-op, not a duplicate entry.
		SetOptional{Collection: "users", Path: "nick", Optional: true},
	)

	tree := schema.Collections[0].Def.Schema
	assert.Equal(t, []string{"nick"}, tree.Optional)
}

func TestResolve_RemoveAttributeClearsOptionalFlag(t *testing.T) {
	schema := mustResolve(t,
		CreateCollection{Collection: "users"},
		SetAttribute{Collection: "users", Path: "nick", Attr: ir.Primitive{Kind: ir.KindString}},
		SetOptional{Collection: "users", Path: "nick", Optional: true},
		RemoveAttribute{Collection: "users", Path: "nick"},
	)

	tree := schema.Collections[0].Def.Schema
	assert.Empty(t, tree.Properties)
	assert.Empty(t, tree.Optional)
}

func TestResolve_SetRulesReplacesAndClears(t *testing.T) {
	schema := mustResolve(t,
		CreateCollection{Collection: "users", Rules: ir.Object{ir.F("read", ir.Bool(true))}},
		SetRules{Collection: "users", Rules: ir.Object{ir.F("write", ir.Bool(false))}},
	)
	rules, ok := schema.Collections[0].Def.Rules.(ir.Object)
	require.True(t, ok)
	_, hasRead := rules.Get("read")
	assert.False(t, hasRead)
	_, hasWrite := rules.Get("write")
	assert.True(t, hasWrite)

	schema = mustResolve(t,
		CreateCollection{Collection: "users", Rules: ir.Object{ir.F("read", ir.Bool(true))}},
		SetRules{Collection: "users"},
	)
	assert.Nil(t, schema.Collections[0].Def.Rules)
}

func TestResolve_Errors(t *testing.T) {
	testCases := []struct {
		name string
		ops  []Op
		want string
	}{
		{
			name: "duplicate collection",
			ops: []Op{
				CreateCollection{Collection: "users"},
				CreateCollection{Collection: "users"},
			},
			want: `collection "users" already exists`,
		},
		{
			name: "delete missing collection",
			ops:  []Op{DeleteCollection{Collection: "users"}},
			want: `collection "users" does not exist`,
		},
		{
			name: "set attribute on missing collection",
			ops: []Op{
				SetAttribute{Collection: "users", Path: "name", Attr: ir.Primitive{Kind: ir.KindString}},
			},
			want: `collection "users" does not exist`,
		},
		{
			name: "remove missing attribute",
			ops: []Op{
				CreateCollection{Collection: "users"},
				RemoveAttribute{Collection: "users", Path: "ghost"},
			},
			want: `attribute "ghost" does not exist`,
		},
		{
			name: "path through non-record",
			ops: []Op{
				CreateCollection{Collection: "users"},
				SetAttribute{Collection: "users", Path: "name", Attr: ir.Primitive{Kind: ir.KindString}},
				SetAttribute{Collection: "users", Path: "name.first", Attr: ir.Primitive{Kind: ir.KindString}},
			},
			want: `path segment "name" is not a record`,
		},
		{
			name: "path through missing segment",
			ops: []Op{
				CreateCollection{Collection: "users"},
				SetAttribute{Collection: "users", Path: "profile.bio", Attr: ir.Primitive{Kind: ir.KindString}},
			},
			want: `path segment "profile" does not exist`,
		},
		{
			name: "empty path",
			ops: []Op{
				CreateCollection{Collection: "users"},
				SetAttribute{Collection: "users", Path: "", Attr: ir.Primitive{Kind: ir.KindString}},
			},
			want: "empty attribute path",
		},
		{
			name: "relation marked optional",
			ops: []Op{
				CreateCollection{Collection: "users"},
				SetAttribute{Collection: "users", Path: "team", Attr: ir.Relation{Cardinality: ir.One, Target: "teams"}},
				SetOptional{Collection: "users", Path: "team", Optional: true},
			},
			want: `relation "team" cannot be optional`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve([]Migration{{Name: "test", Seq: 1, Ops: tc.ops}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestResolve_ErrorNamesMigrationAndOp(t *testing.T) {
	_, err := Resolve([]Migration{{Name: "bad one", Seq: 3, Ops: []Op{
		DeleteCollection{Collection: "nope"},
	}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `migration "bad one" (seq 3) op 0 (delete_collection)`)
}
