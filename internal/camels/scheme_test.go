package camels

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScheme(t *testing.T) {
	s := DefaultScheme()
	require.NoError(t, s.Validate())

	for _, v := range Variables() {
		assert.Equal(t, BinExpert, s.Thresholds[v].Method, v.Key())
	}
	assert.True(t, s.Thresholds[Tier1CapitalRatio].HigherIsBetter)
	assert.False(t, s.Thresholds[DebtToEquity].HigherIsBetter)
	assert.Equal(t, [4]float64{1, 1.35, 1.7, 2}, s.Thresholds[LiquidityCoverage].Bounds)
	assert.Equal(t, 0.15, s.Weights[NPLRatio])
}

func TestSchemeFileFormats(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml", ".json"} {
		t.Run(strings.TrimPrefix(ext, "."), func(t *testing.T) {
			data, err := EncodeScheme(DefaultScheme(), ext)
			require.NoError(t, err)

			parsed, err := ParseScheme(data, ext)
			require.NoError(t, err)
			assert.Equal(t, DefaultScheme().Thresholds, parsed.Thresholds)
			assert.Equal(t, DefaultScheme().Weights, parsed.Weights)
			assert.Equal(t, "default", parsed.Name)
		})
	}
}

func TestLoadScheme(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml with display names", func(t *testing.T) {
		path := filepath.Join(dir, "conservative.yml")
		data, err := EncodeScheme(DefaultScheme(), ".yaml")
		require.NoError(t, err)
		content := strings.Replace(string(data), "name: default\n", "", 1)
		content = strings.Replace(content, "  cash_ratio:", "  Cash Ratio:", 2)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		s, err := LoadScheme(path)
		require.NoError(t, err)
		assert.Equal(t, "conservative", s.Name)
		assert.Equal(t, DefaultScheme().Thresholds[CashRatio], s.Thresholds[CashRatio])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScheme(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "scheme.ini")
		require.NoError(t, os.WriteFile(path, []byte("x=1"), 0644))
		_, err := LoadScheme(path)
		assert.Error(t, err)
	})
}

func TestParseSchemeRejects(t *testing.T) {
	base := func() map[string]interface{} {
		data, _ := EncodeScheme(DefaultScheme(), ".json")
		var m map[string]interface{}
		_ = json.Unmarshal(data, &m)
		return m
	}
	encode := func(m map[string]interface{}) []byte {
		data, _ := json.Marshal(m)
		return data
	}

	tests := []struct {
		name   string
		mutate func(m map[string]interface{})
	}{
		{
			name: "missing threshold",
			mutate: func(m map[string]interface{}) {
				delete(m["thresholds"].(map[string]interface{}), "roa")
			},
		},
		{
			name: "missing weight",
			mutate: func(m map[string]interface{}) {
				delete(m["weights"].(map[string]interface{}), "lcr")
			},
		},
		{
			name: "unknown variable",
			mutate: func(m map[string]interface{}) {
				m["weights"].(map[string]interface{})["leverage"] = 0.0
			},
		},
		{
			name: "weights do not sum to one",
			mutate: func(m map[string]interface{}) {
				m["weights"].(map[string]interface{})["lcr"] = 0.2
			},
		},
		{
			name: "three bounds",
			mutate: func(m map[string]interface{}) {
				th := m["thresholds"].(map[string]interface{})["npl_ratio"].(map[string]interface{})
				th["bounds"] = []float64{0.04, 0.08, 0.12}
			},
		},
		{
			name: "decreasing bounds",
			mutate: func(m map[string]interface{}) {
				th := m["thresholds"].(map[string]interface{})["npl_ratio"].(map[string]interface{})
				th["bounds"] = []float64{0.16, 0.12, 0.08, 0.04}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			_, err := ParseScheme(encode(m), "json")
			assert.ErrorIs(t, err, ErrInvalidScheme)
		})
	}
}

func TestSchemeJSON(t *testing.T) {
	data, err := json.Marshal(DefaultScheme())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tier1_capital_ratio"`)

	var decoded Scheme
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, DefaultScheme(), decoded)
}
