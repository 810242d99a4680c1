package flow

import "testing"

func TestMergeMaps(t *testing.T) {
	t.Run("delta overwrites matching fields", func(t *testing.T) {
		prev := MapState{"a": "old", "b": "keep"}
		merged := MergeMaps(prev, MapState{"a": "new"})

		if merged["a"] != "new" {
			t.Errorf("a = %v, want new", merged["a"])
		}
		if merged["b"] != "keep" {
			t.Errorf("b = %v, want keep", merged["b"])
		}
	})

	t.Run("fields absent from delta are preserved", func(t *testing.T) {
		prev := MapState{"a": 1.0, "b": 2.0, "c": 3.0}
		merged := MergeMaps(prev, MapState{})

		if len(merged) != 3 {
			t.Errorf("merged = %v, want all fields kept", merged)
		}
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		prev := MapState{"a": "old"}
		delta := MapState{"a": "new", "b": "added"}
		MergeMaps(prev, delta)

		if prev["a"] != "old" || len(prev) != 1 {
			t.Errorf("prev mutated: %v", prev)
		}
		if len(delta) != 2 {
			t.Errorf("delta mutated: %v", delta)
		}
	})

	t.Run("nil inputs", func(t *testing.T) {
		if got := MergeMaps(nil, MapState{"a": "v"}); got["a"] != "v" {
			t.Errorf("merge into nil prev = %v", got)
		}
		if got := MergeMaps(MapState{"a": "v"}, nil); got["a"] != "v" {
			t.Errorf("merge nil delta = %v", got)
		}
	})
}

func TestDeepCopy(t *testing.T) {
	t.Run("map state", func(t *testing.T) {
		orig := MapState{"s": "v", "nested": map[string]any{"k": "inner"}}
		copied, err := deepCopy(orig)
		if err != nil {
			t.Fatalf("deepCopy failed: %v", err)
		}

		copied["s"] = "changed"
		copied["nested"].(map[string]any)["k"] = "changed"

		if orig["s"] != "v" {
			t.Error("top-level mutation leaked into original")
		}
		if orig["nested"].(map[string]any)["k"] != "inner" {
			t.Error("nested mutation leaked into original")
		}
	})

	t.Run("struct state", func(t *testing.T) {
		type order struct {
			SKU   string   `json:"sku"`
			Items []string `json:"items"`
		}
		orig := order{SKU: "sku-1", Items: []string{"a", "b"}}
		copied, err := deepCopy(orig)
		if err != nil {
			t.Fatalf("deepCopy failed: %v", err)
		}

		copied.Items[0] = "changed"
		if orig.Items[0] != "a" {
			t.Error("slice mutation leaked into original")
		}
	})
}
