package strategy

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Kind is the type of a method parameter.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindCase  // one letter among ParamSpec.Cases
	KindStrat // nested strategy parsed against ParamSpec.Table
)

// ParamSpec declares one method parameter.
type ParamSpec struct {
	Name    string
	Kind    Kind
	Cases   string
	Table   *Table
	Default any
}

// MethodSpec declares a method of a table.
type MethodSpec struct {
	Name   byte
	Params []ParamSpec
}

// Param returns the declaration of a parameter.
func (s *MethodSpec) Param(name string) (*ParamSpec, bool) {
	for i := range s.Params {
		if s.Params[i].Name == name {
			return &s.Params[i], true
		}
	}
	return nil, false
}

// Table is the set of methods and condition variables a strategy may use.
type Table struct {
	Name    string
	Methods map[byte]*MethodSpec
	Vars    []string
}

// NewTable creates an empty table.
func NewTable(name string, vars ...string) *Table {
	return &Table{Name: name, Methods: make(map[byte]*MethodSpec), Vars: vars}
}

// Add declares a method.
func (t *Table) Add(name byte, params ...ParamSpec) *MethodSpec {
	spec := &MethodSpec{Name: name, Params: params}
	t.Methods[name] = spec
	return spec
}

// HasVar reports whether conditions may reference the variable.
func (t *Table) HasVar(name string) bool {
	for _, v := range t.Vars {
		if v == name {
			return true
		}
	}
	return false
}

// Decode fills out, a pointer to a struct whose fields carry `strat` tags,
// from the method parameters merged over the declared defaults. Strategy
// parameters decode into Node fields.
func (m *Method) Decode(out any) error {
	values := make(map[string]any, len(m.Spec.Params))
	for _, p := range m.Spec.Params {
		if p.Default == nil {
			continue
		}
		if text, ok := p.Default.(string); ok && p.Kind == KindStrat {
			n, err := Parse(p.Table, text)
			if err != nil {
				return fmt.Errorf("bad default for parameter %s of method %c: %w", p.Name, m.Spec.Name, err)
			}
			values[p.Name] = n
			continue
		}
		values[p.Name] = p.Default
	}
	for k, v := range m.Params {
		values[k] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "strat",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder for method %c: %w", m.Spec.Name, err)
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("failed to decode parameters of method %c: %w", m.Spec.Name, err)
	}
	return nil
}
