package rpc

import (
	"github.com/shakhov/paycore/internal/fault"
)

// FieldType — тип поля input shape.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldInt    FieldType = "integer"
	FieldBool   FieldType = "boolean"
	FieldObject FieldType = "object"
	FieldArray  FieldType = "array"
)

// Field — одно поле input shape.
type Field struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
}

// InputShape — объявленная форма аргументов tool'а.
// Проверяется один раз на границе dispatch — обработчики получают
// уже валидированные аргументы.
type InputShape struct {
	Fields []Field
}

// Shape — удобный конструктор InputShape.
func Shape(fields ...Field) InputShape {
	return InputShape{Fields: fields}
}

// Req объявляет обязательное поле.
func Req(name string, t FieldType, desc string) Field {
	return Field{Name: name, Type: t, Required: true, Description: desc}
}

// Opt объявляет необязательное поле.
func Opt(name string, t FieldType, desc string) Field {
	return Field{Name: name, Type: t, Description: desc}
}

// Validate проверяет аргументы против shape.
//
// Ошибки — класса Validation: отсутствует обязательное поле,
// несоответствие типа, необъявленное поле.
func (s InputShape) Validate(args map[string]any) error {
	declared := make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		declared[f.Name] = f
	}

	for _, f := range s.Fields {
		v, ok := args[f.Name]
		if !ok {
			if f.Required {
				return fault.New(fault.KindValidation, "missing required field %q", f.Name)
			}
			continue
		}
		if !matchesType(v, f.Type) {
			return fault.New(fault.KindValidation, "field %q: expected %s, got %T", f.Name, f.Type, v)
		}
	}

	for name := range args {
		if _, ok := declared[name]; !ok {
			return fault.New(fault.KindValidation, "unknown field %q", name)
		}
	}

	return nil
}

// matchesType проверяет соответствие значения типу поля.
// JSON-числа приходят как float64; для integer требуем целое значение.
func matchesType(v any, t FieldType) bool {
	switch t {
	case FieldString:
		_, ok := v.(string)
		return ok
	case FieldNumber:
		switch v.(type) {
		case float64, int:
			return true
		}
		return false
	case FieldInt:
		switch n := v.(type) {
		case int:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case FieldBool:
		_, ok := v.(bool)
		return ok
	case FieldObject:
		_, ok := v.(map[string]any)
		return ok
	case FieldArray:
		_, ok := v.([]any)
		return ok
	default:
		return false
	}
}
