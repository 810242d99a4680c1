package flow

import (
	"encoding/json"
	"fmt"
)

// MapState is a ready-made workflow state: an open mapping from field name
// to value. Use it with MergeMaps when the set of fields is defined at
// graph-construction time and steps return sparse updates.
//
// Values must be JSON-serializable for checkpoint persistence.
type MapState map[string]any

// MergeMaps is the Reducer for MapState. It applies a field-wise,
// additive overwrite: every field present in delta replaces the same field
// in prev; fields absent from delta are preserved untouched. The merge
// never removes a field.
func MergeMaps(prev, delta MapState) MapState {
	merged := make(MapState, len(prev)+len(delta))
	for k, v := range prev {
		merged[k] = v
	}
	for k, v := range delta {
		merged[k] = v
	}
	return merged
}

// deepCopy clones state via a JSON round trip. This works for any state
// type the checkpoint stores can persist: exported struct fields, maps,
// slices, primitives. The executor copies state before handing it to a
// step so a step mutating its input cannot corrupt the persisted
// checkpoint.
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return copied, nil
}
