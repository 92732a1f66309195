package internal

import (
	"strconv"

	"github.com/lychee-technology/jsonerd"
)

// AnalyzeFields classifies every child of v into a field descriptor.
//
// Objects yield one descriptor per member in member order. Arrays are keyed
// by element index, the way a for-in loop sees them. Primitives have no
// fields. Arrays are typed from their first element only.
func AnalyzeFields(v jsonerd.Value) *jsonerd.Fields {
	fields := jsonerd.NewFields()

	switch v.Kind() {
	case jsonerd.KindObject:
		for _, m := range v.Object().Members() {
			fields.Set(describeField(m.Key, m.Value))
		}
	case jsonerd.KindArray:
		for i, item := range v.Items() {
			fields.Set(describeField(strconv.Itoa(i), item))
		}
	case jsonerd.KindNull, jsonerd.KindBool, jsonerd.KindNumber, jsonerd.KindString:
	}

	return fields
}

func describeField(name string, v jsonerd.Value) *jsonerd.FieldDescriptor {
	switch kind := v.Kind(); kind {
	case jsonerd.KindArray:
		items := v.Items()
		if len(items) == 0 {
			return &jsonerd.FieldDescriptor{Name: name, Type: jsonerd.TypeArray}
		}
		first := items[0]
		if first.Kind().Structured() {
			return &jsonerd.FieldDescriptor{
				Name:         name,
				Type:         jsonerd.TypeArrayObject,
				IsExpandable: true,
				Content:      AnalyzeFields(first),
			}
		}
		return &jsonerd.FieldDescriptor{Name: name, Type: jsonerd.ArrayOf(first.Kind().TypeName())}
	case jsonerd.KindObject:
		return &jsonerd.FieldDescriptor{
			Name:         name,
			Type:         jsonerd.TypeObject,
			IsExpandable: true,
			Content:      AnalyzeFields(v),
		}
	default:
		return &jsonerd.FieldDescriptor{Name: name, Type: kind.TypeName()}
	}
}
