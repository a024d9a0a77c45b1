package control

// Merge combines one frame's action batches from every source into a
// single ordered list, applying the fixed drain order MIDI -> OSC ->
// WebSocket (§5, §6). The caller is expected to apply actions in the
// returned order; later actions targeting the same (kind, param/layer)
// key naturally overwrite earlier ones when applied in sequence, giving
// last-writer-wins without Merge itself needing to know how to apply an
// action.
func Merge(midi, osc, ws []Action) []Action {
	out := make([]Action, 0, len(midi)+len(osc)+len(ws))
	out = append(out, midi...)
	out = append(out, osc...)
	out = append(out, ws...)
	return out
}

// ResolveLastWriterWins collapses a drain-ordered action list so only the
// last write to each distinct (param name) or (layer index, field) target
// survives: layer writes setting the same fields collapse to the last one,
// while writes setting different fields are all kept so that applying them
// in order still leaves the last value per field. Relative order is
// preserved for actions with distinct targets
// (triggers, selects, loads are never collapsed — every one fires).
// Split out from Merge so the "last write per target wins" rule is
// independently testable (§5 "two controllers writing the same CC produce
// deterministic output").
func ResolveLastWriterWins(actions []Action) []Action {
	type paramKey struct {
		layer int // -1 for active-layer target
		name  string
	}
	type layerKey struct {
		layer                   int
		opacity, blend, enabled bool // which fields the write sets
	}
	lastParam := make(map[paramKey]int)      // -> index in actions
	lastLayerWrite := make(map[layerKey]int) // -> index in actions

	keep := make([]bool, len(actions))
	for i, a := range actions {
		switch a.Kind {
		case ActionParamActive:
			lastParam[paramKey{-1, a.ParamName}] = i
		case ActionParamLayer:
			lastParam[paramKey{a.LayerIndex, a.ParamName}] = i
		case ActionLayerWrite:
			lastLayerWrite[layerKey{a.LayerIndex, a.Opacity != nil, a.Blend != nil, a.Enabled != nil}] = i
		default:
			keep[i] = true
		}
	}
	for _, i := range lastParam {
		keep[i] = true
	}
	for _, i := range lastLayerWrite {
		keep[i] = true
	}

	out := make([]Action, 0, len(actions))
	for i, a := range actions {
		if keep[i] {
			out = append(out, a)
		}
	}
	return out
}
