package internal

import (
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/jsonerd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaDocument = `{
	"_id": "u1",
	"age": 31,
	"active": true,
	"tags": ["a", "b"],
	"profile": {"city": "Oslo"},
	"orders": [{"order_id": "o1", "total": 12.5}],
	"company": {"name": "Acme"}
}`

func exportSchema(t *testing.T, text string) *jsonschema.Schema {
	t.Helper()
	model := newTestEngine().Analyze(mustParse(t, text), "users")
	schema, err := ExportJSONSchema(model)
	require.NoError(t, err)
	return schema
}

func TestExportJSONSchema(t *testing.T) {
	schema := exportSchema(t, schemaDocument)

	assert.Equal(t, draft2020, schema.Schema)
	assert.Equal(t, "Users", schema.Title)
	assert.Equal(t, "object", schema.Type)

	assert.Equal(t, "string", schema.Properties["_id"].Type)
	assert.Equal(t, "number", schema.Properties["age"].Type)
	assert.Equal(t, "boolean", schema.Properties["active"].Type)
	assert.Equal(t, "array", schema.Properties["tags"].Type)
	assert.Equal(t, "string", schema.Properties["tags"].Items.Type)
	assert.Equal(t, "string", schema.Properties["profile"].Properties["city"].Type)

	orders := schema.Properties["orders"]
	require.NotNil(t, orders)
	assert.Equal(t, "array", orders.Type)
	assert.Equal(t, "#/$defs/orders", orders.Items.Ref)
	assert.Equal(t, "#/$defs/company", schema.Properties["company"].Ref)
	assert.NotContains(t, schema.Properties, "orders_ref")

	require.Contains(t, schema.Defs, "orders")
	assert.Equal(t, "Orders", schema.Defs["orders"].Title)
	assert.Equal(t, "Embedded in users.orders", schema.Defs["orders"].Description)
	assert.Equal(t, "number", schema.Defs["orders"].Properties["total"].Type)
	assert.NotContains(t, schema.Defs, "users")
}

func TestExportJSONSchema_Marshals(t *testing.T) {
	data, err := json.Marshal(exportSchema(t, schemaDocument))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, draft2020, decoded["$schema"])
	assert.Contains(t, decoded, "$defs")
}

func TestExportJSONSchema_NestedArrays(t *testing.T) {
	schema := exportSchema(t, `{"grid":[[1,2]],"empty":[]}`)

	grid := schema.Properties["grid"]
	assert.Equal(t, "array", grid.Type)
	assert.Equal(t, "array", grid.Items.Type)
	assert.Equal(t, "array", schema.Properties["empty"].Type)
	assert.Nil(t, schema.Properties["empty"].Items)
	assert.Nil(t, schema.Defs)
}

func TestExportJSONSchema_MissingRoot(t *testing.T) {
	_, err := ExportJSONSchema(&jsonerd.Model{Root: "ghost", Collections: jsonerd.NewCollectionSet()})
	require.Error(t, err)

	erdErr, ok := jsonerd.AsErdError(err)
	require.True(t, ok)
	assert.Equal(t, jsonerd.ErrCodeSchemaExportFailed, erdErr.Code)
}

func TestValidateDocument(t *testing.T) {
	schema := exportSchema(t, schemaDocument)

	require.NoError(t, ValidateDocument(schema, []byte(schemaDocument)))
	assert.NoError(t, ValidateDocument(schema, []byte(`{"age": 2, "extra": "allowed"}`)))

	tests := []struct {
		name string
		doc  string
		code string
	}{
		{name: "wrong primitive", doc: `{"age": "old"}`, code: jsonerd.ErrCodeDocumentInvalid},
		{name: "wrong embedded field", doc: `{"orders": [{"total": "free"}]}`, code: jsonerd.ErrCodeDocumentInvalid},
		{name: "not an object", doc: `[1, 2]`, code: jsonerd.ErrCodeDocumentInvalid},
		{name: "malformed", doc: `{"age":`, code: jsonerd.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(schema, []byte(tt.doc))
			require.Error(t, err)
			assert.True(t, jsonerd.IsValidation(err))
			erdErr, _ := jsonerd.AsErdError(err)
			assert.Equal(t, tt.code, erdErr.Code)
		})
	}
}
