package internal

import (
	"testing"

	"github.com/lychee-technology/jsonerd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) jsonerd.Value {
	t.Helper()
	v, err := jsonerd.ParseValue([]byte(text))
	require.NoError(t, err)
	return v
}

func fieldTypes(fields *jsonerd.Fields) map[string]string {
	out := make(map[string]string, fields.Len())
	fields.Each(func(fd *jsonerd.FieldDescriptor) {
		out[fd.Name] = fd.Type
	})
	return out
}

func TestAnalyzeFields_Primitives(t *testing.T) {
	fields := AnalyzeFields(mustParse(t, `{"s":"x","n":1.5,"b":false,"z":null}`))

	assert.Equal(t, []string{"s", "n", "b", "z"}, fields.Names())
	assert.Equal(t, map[string]string{
		"s": jsonerd.TypeString,
		"n": jsonerd.TypeNumber,
		"b": jsonerd.TypeBoolean,
		"z": jsonerd.TypeNull,
	}, fieldTypes(fields))

	fields.Each(func(fd *jsonerd.FieldDescriptor) {
		assert.False(t, fd.IsExpandable, fd.Name)
		assert.Nil(t, fd.Content, fd.Name)
	})
}

func TestAnalyzeFields_Arrays(t *testing.T) {
	fields := AnalyzeFields(mustParse(t, `{
		"empty": [],
		"tags": ["a", 1],
		"nums": [1, 2],
		"nulls": [null, "x"],
		"items": [{"sku": "a", "qty": 2}, {"other": true}],
		"grid": [[1, 2]]
	}`))

	assert.Equal(t, jsonerd.TypeArray, mustField(t, fields, "empty").Type)
	assert.Equal(t, "array<string>", mustField(t, fields, "tags").Type)
	assert.Equal(t, "array<number>", mustField(t, fields, "nums").Type)
	assert.Equal(t, "array<null>", mustField(t, fields, "nulls").Type)

	items := mustField(t, fields, "items")
	assert.Equal(t, jsonerd.TypeArrayObject, items.Type)
	assert.True(t, items.IsExpandable)
	require.NotNil(t, items.Content)
	assert.Equal(t, []string{"sku", "qty"}, items.Content.Names(), "only the first element is sampled")

	grid := mustField(t, fields, "grid")
	assert.Equal(t, jsonerd.TypeArrayObject, grid.Type)
	assert.Equal(t, []string{"0", "1"}, grid.Content.Names())
}

func TestAnalyzeFields_NestedObject(t *testing.T) {
	fields := AnalyzeFields(mustParse(t, `{"profile":{"age":3,"address":{"city":"x"}}}`))

	profile := mustField(t, fields, "profile")
	assert.Equal(t, jsonerd.TypeObject, profile.Type)
	assert.True(t, profile.IsExpandable)

	address := mustField(t, profile.Content, "address")
	assert.Equal(t, jsonerd.TypeObject, address.Type)
	assert.Equal(t, jsonerd.TypeString, mustField(t, address.Content, "city").Type)
}

func TestAnalyzeFields_EmptyObjectIsExpandable(t *testing.T) {
	fields := AnalyzeFields(mustParse(t, `{"meta":{}}`))

	meta := mustField(t, fields, "meta")
	assert.Equal(t, jsonerd.TypeObject, meta.Type)
	assert.True(t, meta.IsExpandable)
	assert.Equal(t, 0, meta.Content.Len())
}

func TestAnalyzeFields_TopLevelArrayUsesIndexKeys(t *testing.T) {
	fields := AnalyzeFields(mustParse(t, `[{"a":1}, "x"]`))

	assert.Equal(t, []string{"0", "1"}, fields.Names())
	assert.Equal(t, jsonerd.TypeObject, mustField(t, fields, "0").Type)
	assert.Equal(t, jsonerd.TypeString, mustField(t, fields, "1").Type)
}

func TestAnalyzeFields_PrimitiveRootHasNoFields(t *testing.T) {
	for _, text := range []string{`"hello"`, `42`, `true`, `null`} {
		assert.Equal(t, 0, AnalyzeFields(mustParse(t, text)).Len(), text)
	}
}

func mustField(t *testing.T, fields *jsonerd.Fields, name string) *jsonerd.FieldDescriptor {
	t.Helper()
	fd, ok := fields.Get(name)
	require.True(t, ok, "field %q missing", name)
	return fd
}
