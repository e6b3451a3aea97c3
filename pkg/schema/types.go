package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/frame/pkg/domain"
)

// Type checks a single parameter value.
type Type interface {
	Name() string
	Validate(value any) error
}

type basic struct {
	name  string
	check func(any) error
}

func (b basic) Name() string             { return b.name }
func (b basic) Validate(value any) error { return b.check(value) }

type sliceOf struct {
	elem Type
}

func (s sliceOf) Name() string { return "[" + s.elem.Name() + "]" }

func (s sliceOf) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s, got %T", s.Name(), value)
	}
	for i := range rv.Len() {
		if err := s.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

var builtins = map[string]Type{
	"any":      basic{"any", func(any) error { return nil }},
	"string":   basic{"string", checkString},
	"int":      basic{"int", checkInt},
	"float":    basic{"float", checkFloat},
	"bool":     basic{"bool", checkBool},
	"duration": basic{"duration", checkDuration},
	"map":      basic{"map", checkMap},
}

// String is the "string" type.
func String() Type { return builtins["string"] }

// Int is the "int" type.
func Int() Type { return builtins["int"] }

// Float is the "float" type. Integers are accepted too.
func Float() Type { return builtins["float"] }

// Bool is the "bool" type.
func Bool() Type { return builtins["bool"] }

// Duration is the "duration" type.
func Duration() Type { return builtins["duration"] }

// Map is the "map" type: any map keyed by strings.
func Map() Type { return builtins["map"] }

// Any accepts every value, nil included.
func Any() Type { return builtins["any"] }

// Slice checks every element of a slice or array against elem.
func Slice(elem Type) Type { return sliceOf{elem: elem} }

// Custom wraps a validation function under a type name.
func Custom(name string, validate func(any) error) Type {
	return basic{name: name, check: validate}
}

// ParseType resolves a describe manifest type name. "[T]" is a slice of T and
// the empty name is "any".
func ParseType(name string) (Type, error) {
	name = strings.TrimSpace(name)
	if inner, ok := strings.CutPrefix(name, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok || inner == "" {
			return nil, fmt.Errorf("unsupported type: %s", name)
		}
		elem, err := ParseType(inner)
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	if name == "" {
		return Any(), nil
	}
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unsupported type: %s", name)
}

// FromParams builds a schema from the typed entries of a describe phase.
// Untyped params are left out.
func FromParams(params []domain.Param) (Schema, error) {
	s := Schema{}
	for _, p := range params {
		if p.Type == "" {
			continue
		}
		t, err := ParseType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		s[p.Name] = t
	}
	return s, nil
}

func checkString(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	return nil
}

func checkBool(v any) error {
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", v)
	}
	return nil
}

// checkInt also takes whole floats, which is how JSON and YAML pipelines
// hand numbers over.
func checkInt(v any) error {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := n.Int64(); err != nil {
			return fmt.Errorf("expected int, got number %s", n)
		}
		return nil
	case float64:
		if n != float64(int64(n)) {
			return fmt.Errorf("expected int, got float (not a whole number)")
		}
		return nil
	}
	return fmt.Errorf("expected int, got %T", v)
}

func checkFloat(v any) error {
	switch n := v.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := n.Float64(); err != nil {
			return fmt.Errorf("expected float, got number %s", n)
		}
		return nil
	}
	return fmt.Errorf("expected float, got %T", v)
}

// checkDuration accepts a time.Duration, a Go duration string such as "250ms",
// or a whole number of milliseconds.
func checkDuration(v any) error {
	switch d := v.(type) {
	case time.Duration:
		return nil
	case string:
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("expected duration, got %q", d)
		}
		return nil
	}
	if checkInt(v) == nil {
		return nil
	}
	return fmt.Errorf("expected duration, got %T", v)
}

func checkMap(v any) error {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return nil
	}
	return fmt.Errorf("expected map, got %T", v)
}
