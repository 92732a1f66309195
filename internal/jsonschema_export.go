package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/jsonerd"
)

const (
	draft2020   = "https://json-schema.org/draft/2020-12/schema"
	defsPointer = "#/$defs/"
)

var rules = inflect.NewDefaultRuleset()

// ExportJSONSchema renders the model as one JSON Schema document. The root
// collection becomes the top-level schema and every other collection is
// placed under $defs. Reference flags left by extraction point at the
// extracted collection's definition.
func ExportJSONSchema(model *jsonerd.Model) (*jsonschema.Schema, error) {
	root, ok := model.Collections.Get(model.Root)
	if !ok {
		return nil, jsonerd.NewErdError(jsonerd.ErrorTypeInternal, jsonerd.ErrCodeSchemaExportFailed,
			fmt.Sprintf("root collection %q is missing from the model", model.Root))
	}

	schema := collectionSchema(root)
	schema.Schema = draft2020

	model.Collections.Each(func(c *jsonerd.Collection) {
		if c.Name == model.Root {
			return
		}
		if schema.Defs == nil {
			schema.Defs = make(map[string]*jsonschema.Schema)
		}
		schema.Defs[c.Name] = collectionSchema(c)
	})

	return schema, nil
}

func collectionSchema(c *jsonerd.Collection) *jsonschema.Schema {
	s := objectSchema(c.Fields)
	s.Title = rules.Titleize(c.Name)
	if c.HasParent() {
		s.Description = fmt.Sprintf("Embedded in %s.%s", c.ParentCollection, c.RelationField)
	}
	return s
}

func objectSchema(fields *jsonerd.Fields) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, fields.Len()),
	}
	fields.Each(func(fd *jsonerd.FieldDescriptor) {
		if fd.Ref != "" {
			ref := &jsonschema.Schema{Ref: defsPointer + fd.Ref}
			if fd.RefArray {
				ref = &jsonschema.Schema{Type: "array", Items: ref}
			}
			s.Properties[fd.Ref] = ref
			return
		}
		s.Properties[fd.Name] = fieldSchema(fd)
	})
	return s
}

func fieldSchema(fd *jsonerd.FieldDescriptor) *jsonschema.Schema {
	switch {
	case fd.Type == jsonerd.TypeObject:
		return objectSchema(fd.Content)
	case fd.Type == jsonerd.TypeArrayObject:
		return &jsonschema.Schema{Type: "array", Items: structuredItemSchema(fd.Content)}
	case fd.Type == jsonerd.TypeArray:
		return &jsonschema.Schema{Type: "array"}
	case strings.HasPrefix(fd.Type, "array<"):
		element := strings.TrimSuffix(strings.TrimPrefix(fd.Type, "array<"), ">")
		return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: element}}
	default:
		return &jsonschema.Schema{Type: fd.Type}
	}
}

// structuredItemSchema describes the first element of an array of objects
// or arrays. Index-keyed content came from a nested array.
func structuredItemSchema(content *jsonerd.Fields) *jsonschema.Schema {
	names := content.Names()
	if len(names) > 0 && names[0] == "0" {
		return &jsonschema.Schema{Type: "array"}
	}
	return objectSchema(content)
}

// ValidateDocument checks raw against an exported schema.
func ValidateDocument(schema *jsonschema.Schema, raw []byte) error {
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return jsonerd.NewErdError(jsonerd.ErrorTypeValidation, jsonerd.ErrCodeSchemaExportFailed,
			"failed to resolve JSON schema").WithCause(err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return jsonerd.NewInvalidJSONError(err.Error(), 0).WithCause(err)
	}

	if err := resolved.Validate(instance); err != nil {
		return jsonerd.NewErdError(jsonerd.ErrorTypeValidation, jsonerd.ErrCodeDocumentInvalid,
			"document does not match schema").WithCause(err)
	}
	return nil
}
