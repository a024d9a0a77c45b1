package layer

import "fmt"

// BlendMode is the compositor blend mode a layer is composited with (§3).
// The encoding is a stable ABI contract shared with the compositor's
// uniform buffer — never renumber existing variants.
type BlendMode uint32

const (
	BlendNormal     BlendMode = 0
	BlendAdd        BlendMode = 1
	BlendMultiply   BlendMode = 2
	BlendScreen     BlendMode = 3
	BlendOverlay    BlendMode = 4
	BlendSoftLight  BlendMode = 5
	BlendDifference BlendMode = 6
)

var blendNames = map[BlendMode]string{
	BlendNormal:     "Normal",
	BlendAdd:        "Add",
	BlendMultiply:   "Multiply",
	BlendScreen:     "Screen",
	BlendOverlay:    "Overlay",
	BlendSoftLight:  "SoftLight",
	BlendDifference: "Difference",
}

// AsU32 returns the wire encoding of m.
func (m BlendMode) AsU32() uint32 { return uint32(m) }

// BlendModeFromU32 decodes the wire encoding back to a BlendMode. §8
// requires BlendModeFromU32(m.AsU32()) == m for every variant.
func BlendModeFromU32(v uint32) BlendMode { return BlendMode(v) }

// String returns the serialized preset name for m (§6 "blend (serialized
// name)").
func (m BlendMode) String() string {
	if name, ok := blendNames[m]; ok {
		return name
	}
	return fmt.Sprintf("BlendMode(%d)", uint32(m))
}

// ParseBlendMode decodes a preset's serialized blend mode name.
func ParseBlendMode(name string) (BlendMode, error) {
	for m, n := range blendNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("layer: unknown blend mode %q", name)
}

// MarshalJSON encodes the blend mode by name (§6 preset format).
func (m BlendMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes the blend mode by name.
func (m *BlendMode) UnmarshalJSON(data []byte) error {
	name := string(data)
	if len(name) >= 2 && name[0] == '"' && name[len(name)-1] == '"' {
		name = name[1 : len(name)-1]
	}
	parsed, err := ParseBlendMode(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
