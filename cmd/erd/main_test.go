package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleDocument = `{"_id":"u1","name":"Ada","orders":[{"order_id":"o1","total":12.5}],"company":{"name":"Acme"}}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "erd", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"analyze", "share", "export-schema", "validate", "version"} {
		assert.Contains(t, names, expected)
	}
}

func TestAnalyzeFromStdin(t *testing.T) {
	out, err := run(t, sampleDocument, "analyze", "--collection", "users")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "users", result["root"])

	collections := result["collections"].(map[string]any)
	assert.Len(t, collections, 3)
	assert.Contains(t, collections, "orders")
	assert.Contains(t, collections, "company")
}

func TestAnalyzeYAMLKeepsOrder(t *testing.T) {
	path := writeFile(t, "doc.json", sampleDocument)

	out, err := run(t, "", "analyze", path, "--format", "yaml")
	require.NoError(t, err)

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(out), &node))
	root := node.Content[0]
	require.Equal(t, yaml.MappingNode, root.Kind)
	assert.Equal(t, "root", root.Content[0].Value)
	assert.Equal(t, "personal", root.Content[1].Value)

	collections := root.Content[3]
	var names []string
	for i := 0; i < len(collections.Content); i += 2 {
		names = append(names, collections.Content[i].Value)
	}
	assert.Equal(t, []string{"personal", "orders", "company"}, names)
}

func TestAnalyzeRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, sampleDocument, "analyze", "--format", "xml")
	assert.Error(t, err)
}

func TestAnalyzeMalformedInput(t *testing.T) {
	_, err := run(t, `{"a":`, "analyze")
	assert.Error(t, err)
}

func TestShareEncodeDecodeRoundTrip(t *testing.T) {
	out, err := run(t, `{"b":1,"a":[true,null]}`, "share", "encode", "--collection", "things", "--base-url", "https://erd.example/view")
	require.NoError(t, err)

	var link string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "url:") {
			link = strings.TrimSpace(strings.TrimPrefix(line, "url:"))
		}
	}
	require.True(t, strings.HasPrefix(link, "https://erd.example/view?data="), out)

	decoded, err := run(t, "", "share", "decode", link)
	require.NoError(t, err)
	assert.JSONEq(t, `{"json":{"b":1,"a":[true,null]},"collection":"things"}`, decoded)
	assert.True(t, strings.Index(decoded, `"b"`) < strings.Index(decoded, `"a"`))
}

func TestShareDecodeBadToken(t *testing.T) {
	_, err := run(t, "", "share", "decode", "!!!")
	assert.Error(t, err)
}

func TestExportSchemaAndValidate(t *testing.T) {
	docPath := writeFile(t, "doc.json", sampleDocument)

	schemaOut, err := run(t, "", "export-schema", docPath)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(schemaOut), &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["$defs"], "orders")

	schemaPath := writeFile(t, "schema.json", schemaOut)
	out, err := run(t, "", "validate", schemaPath, docPath)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	badPath := writeFile(t, "bad.json", `{"name":42}`)
	_, err = run(t, "", "validate", schemaPath, badPath)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.0.0-test")
}
