// Package params implements the effect parameter definition/value store
// and its packing into the fixed-size GPU uniform slot (§4.7).
package params

import (
	"encoding/json"
	"fmt"
	"log"
)

// Kind identifies a parameter's tagged-variant type.
type Kind string

const (
	KindFloat   Kind = "Float"
	KindColor   Kind = "Color"
	KindBool    Kind = "Bool"
	KindPoint2D Kind = "Point2D"
)

// ParamDef is the tagged-variant parameter definition from §3/§6: Float has
// a range, Color/Bool/Point2D have only a default (Point2D additionally has
// a min/max pair for range scaling).
type ParamDef struct {
	Type Kind
	Name string

	FloatDefault, FloatMin, FloatMax float32

	ColorDefault [4]float32

	BoolDefault bool

	Point2DDefault, Point2DMin, Point2DMax [2]float32
}

// Slots reports how many of the 16 uniform floats this def occupies.
func (d ParamDef) Slots() int {
	switch d.Type {
	case KindFloat, KindBool:
		return 1
	case KindPoint2D:
		return 2
	case KindColor:
		return 4
	default:
		return 0
	}
}

type paramDefJSON struct {
	Type    Kind    `json:"type"`
	Name    string  `json:"name"`
	Default json.RawMessage `json:"default"`
	Min     json.RawMessage `json:"min,omitempty"`
	Max     json.RawMessage `json:"max,omitempty"`
}

// MarshalJSON encodes a ParamDef as one of the four tagged shapes in §6.
func (d ParamDef) MarshalJSON() ([]byte, error) {
	switch d.Type {
	case KindFloat:
		return json.Marshal(struct {
			Type    Kind    `json:"type"`
			Name    string  `json:"name"`
			Default float32 `json:"default"`
			Min     float32 `json:"min"`
			Max     float32 `json:"max"`
		}{d.Type, d.Name, d.FloatDefault, d.FloatMin, d.FloatMax})
	case KindColor:
		return json.Marshal(struct {
			Type    Kind      `json:"type"`
			Name    string    `json:"name"`
			Default [4]float32 `json:"default"`
		}{d.Type, d.Name, d.ColorDefault})
	case KindBool:
		return json.Marshal(struct {
			Type    Kind   `json:"type"`
			Name    string `json:"name"`
			Default bool   `json:"default"`
		}{d.Type, d.Name, d.BoolDefault})
	case KindPoint2D:
		return json.Marshal(struct {
			Type    Kind      `json:"type"`
			Name    string    `json:"name"`
			Default [2]float32 `json:"default"`
			Min     [2]float32 `json:"min"`
			Max     [2]float32 `json:"max"`
		}{d.Type, d.Name, d.Point2DDefault, d.Point2DMin, d.Point2DMax})
	default:
		return nil, fmt.Errorf("params: unknown kind %q", d.Type)
	}
}

// UnmarshalJSON decodes one of the four tagged shapes in §6.
func (d *ParamDef) UnmarshalJSON(data []byte) error {
	var aux paramDefJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Type = aux.Type
	d.Name = aux.Name
	switch aux.Type {
	case KindFloat:
		var v struct{ Default, Min, Max float32 }
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("params: decode Float %q: %w", aux.Name, err)
		}
		d.FloatDefault, d.FloatMin, d.FloatMax = v.Default, v.Min, v.Max
	case KindColor:
		var v struct {
			Default [4]float32 `json:"default"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("params: decode Color %q: %w", aux.Name, err)
		}
		d.ColorDefault = v.Default
	case KindBool:
		var v struct {
			Default bool `json:"default"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("params: decode Bool %q: %w", aux.Name, err)
		}
		d.BoolDefault = v.Default
	case KindPoint2D:
		var v struct {
			Default, Min, Max [2]float32
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("params: decode Point2D %q: %w", aux.Name, err)
		}
		d.Point2DDefault, d.Point2DMin, d.Point2DMax = v.Default, v.Min, v.Max
	default:
		return fmt.Errorf("params: unknown kind %q for %q", aux.Type, aux.Name)
	}
	return nil
}

// Value is a stored parameter value, tagged the same way as its ParamDef.
type Value struct {
	Kind  Kind
	Float float32
	Color [4]float32
	Bool  bool
	Point [2]float32
}

func defaultValue(d ParamDef) Value {
	switch d.Type {
	case KindFloat:
		return Value{Kind: KindFloat, Float: d.FloatDefault}
	case KindColor:
		return Value{Kind: KindColor, Color: d.ColorDefault}
	case KindBool:
		return Value{Kind: KindBool, Bool: d.BoolDefault}
	case KindPoint2D:
		return Value{Kind: KindPoint2D, Point: d.Point2DDefault}
	default:
		return Value{}
	}
}

// Store holds values keyed by parameter name, alongside the ordered
// definition list used for uniform packing (§4.7).
type Store struct {
	defs   []ParamDef
	values map[string]Value
	dirty  bool
}

// NewStore creates an empty parameter store.
func NewStore() *Store {
	return &Store{values: make(map[string]Value)}
}

// LoadDefs replaces the definition list and seeds any value missing from
// the store with that definition's default; existing values are left
// untouched (§4.7).
func (s *Store) LoadDefs(defs []ParamDef) {
	s.defs = defs
	for _, d := range defs {
		if _, ok := s.values[d.Name]; !ok {
			s.values[d.Name] = defaultValue(d)
		}
	}
}

// Defs returns the current ordered definition list.
func (s *Store) Defs() []ParamDef { return s.defs }

// Get returns the current value for name.
func (s *Store) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set updates a value and marks the store dirty.
func (s *Store) Set(name string, v Value) {
	s.values[name] = v
	s.dirty = true
}

// Dirty reports whether any value has changed since the last ClearDirty.
func (s *Store) Dirty() bool { return s.dirty }

// ClearDirty resets the dirty flag.
func (s *Store) ClearDirty() { s.dirty = false }

// ResetAll restores every value to its definition's default.
func (s *Store) ResetAll() {
	for _, d := range s.defs {
		s.values[d.Name] = defaultValue(d)
	}
	s.dirty = true
}

// uniformSlots is the fixed size of the GPU params uniform (4 x vec4f).
const uniformSlots = 16

// PackToBuffer walks defs in declaration order and packs each value into
// the 16-float uniform slot (Float: 1, Bool: 1 as 0/1, Point2D: 2, Color:
// 4), zero-filling any remaining tail. Always returns exactly 16 floats
// (§8: "ParamStore::pack_to_buffer() always returns exactly 16 floats").
func (s *Store) PackToBuffer() [uniformSlots]float32 {
	var buf [uniformSlots]float32
	i := 0
	for _, d := range s.defs {
		v := s.values[d.Name]
		if i >= uniformSlots {
			log.Printf("[params] definition %q exceeds the %d-float uniform slot, dropping", d.Name, uniformSlots)
			break
		}
		switch d.Type {
		case KindFloat:
			buf[i] = v.Float
			i++
		case KindBool:
			if v.Bool {
				buf[i] = 1
			}
			i++
		case KindPoint2D:
			if i+2 > uniformSlots {
				log.Printf("[params] definition %q does not fit in the remaining uniform slots, dropping", d.Name)
				i = uniformSlots
				continue
			}
			buf[i] = v.Point[0]
			buf[i+1] = v.Point[1]
			i += 2
		case KindColor:
			if i+4 > uniformSlots {
				log.Printf("[params] definition %q does not fit in the remaining uniform slots, dropping", d.Name)
				i = uniformSlots
				continue
			}
			buf[i], buf[i+1], buf[i+2], buf[i+3] = v.Color[0], v.Color[1], v.Color[2], v.Color[3]
			i += 4
		}
	}
	return buf
}

// ScaleFloat maps an external normalized input x (clamped to [0,1]) onto
// [min, max] (§4.7).
func ScaleFloat(min, max, x float32) float32 {
	x = clamp01(x)
	return min + (max-min)*x
}

// ScaleBool maps an external normalized input onto a boolean (§4.7:
// "Bool = x > 0.5").
func ScaleBool(x float32) bool {
	return clamp01(x) > 0.5
}

// ScalePoint2D maps an external normalized (x,y) pair onto [min, max] per
// axis.
func ScalePoint2D(min, max [2]float32, x [2]float32) [2]float32 {
	return [2]float32{ScaleFloat(min[0], max[0], x[0]), ScaleFloat(min[1], max[1], x[1])}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
