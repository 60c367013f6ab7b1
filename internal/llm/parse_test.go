package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatsetu/label-auditor/internal/label"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, StripCodeFences(c.in))
		})
	}
}

func TestParseModelText(t *testing.T) {
	t.Run("valid object passes the strict stage", func(t *testing.T) {
		out := ParseModelText("```json\n{\"human_summary\":\"A biscuit\",\"brand\":null}\n```")
		require.True(t, out.Valid())
		assert.Equal(t, "A biscuit", out.Structured["human_summary"])
		assert.Nil(t, out.Structured["brand"])
	})

	t.Run("non-JSON text degrades to the raw carrier", func(t *testing.T) {
		out := ParseModelText("Sorry, I can't read this label.")
		assert.False(t, out.Valid())
		assert.Equal(t, "Sorry, I can't read this label.", out.Raw)
	})

	t.Run("schema violation degrades instead of coercing", func(t *testing.T) {
		// ingredients must be an array or null, never a bare string.
		out := ParseModelText(`{"human_summary":"x","ingredients":"butter"}`)
		assert.False(t, out.Valid())
		assert.Equal(t, `{"human_summary":"x","ingredients":"butter"}`, out.Raw)
	})

	t.Run("unknown extra fields are allowed through", func(t *testing.T) {
		out := ParseModelText(`{"human_summary":"x","vendor_note":"extra"}`)
		require.True(t, out.Valid())
		assert.Equal(t, "extra", out.Structured["vendor_note"])
	})
}

func TestMergeRedFlags(t *testing.T) {
	heuristic := []label.RedFlag{{Text: "Contains artificial sweetener", Reason: "could mislead"}}

	t.Run("model flags win over heuristics", func(t *testing.T) {
		m := map[string]any{"red_flags": []any{map[string]any{"text": "x", "reason": "y"}}}
		out := MergeRedFlags(m, heuristic)
		require.Len(t, out["red_flags"], 1)
		assert.Equal(t, "x", out["red_flags"].([]any)[0].(map[string]any)["text"])
	})

	t.Run("empty model array falls back to heuristics", func(t *testing.T) {
		m := map[string]any{"red_flags": []any{}}
		out := MergeRedFlags(m, heuristic)
		assert.Equal(t, heuristic, out["red_flags"])
	})

	t.Run("missing model flags fall back to heuristics", func(t *testing.T) {
		out := MergeRedFlags(map[string]any{}, heuristic)
		assert.Equal(t, heuristic, out["red_flags"])
	})

	t.Run("both empty yields explicit null", func(t *testing.T) {
		out := MergeRedFlags(map[string]any{}, nil)
		v, present := out["red_flags"]
		assert.True(t, present)
		assert.Nil(t, v)
	})

	t.Run("nil structured passes through", func(t *testing.T) {
		assert.Nil(t, MergeRedFlags(nil, heuristic))
	})
}
