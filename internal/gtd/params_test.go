package gtd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParams(t *testing.T) {
	schema := ParamSchema{
		"max_days": {Type: "int", Default: 14, Min: bound(1), Max: bound(365)},
		"fraction": {Type: "float", Default: 0.5, Min: bound(0.1), Max: bound(0.9)},
	}

	testCases := []struct {
		name    string
		params  map[string]interface{}
		wantErr string
	}{
		{name: "nil params use defaults", params: nil},
		{name: "valid overrides", params: map[string]interface{}{"max_days": 30, "fraction": 0.25}},
		{name: "json numbers accepted", params: map[string]interface{}{"max_days": float64(30)}},
		{name: "unknown parameter", params: map[string]interface{}{"bogus": 1}, wantErr: "unknown parameter"},
		{name: "below minimum", params: map[string]interface{}{"max_days": 0}, wantErr: "below minimum"},
		{name: "above maximum", params: map[string]interface{}{"fraction": 1.5}, wantErr: "above maximum"},
		{name: "wrong type", params: map[string]interface{}{"max_days": "soon"}, wantErr: "must be an integer"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateParams(schema, tc.params)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParamFallbacks(t *testing.T) {
	schema := ParamSchema{
		"max_days": {Type: "int", Default: 14},
		"fraction": {Type: "float", Default: 0.5},
	}

	assert.Equal(t, 14, paramInt(schema, nil, "max_days"))
	assert.Equal(t, 30, paramInt(schema, map[string]interface{}{"max_days": 30}, "max_days"))
	assert.Equal(t, 0.5, paramFloat(schema, nil, "fraction"))
	assert.Equal(t, 0.75, paramFloat(schema, map[string]interface{}{"fraction": 0.75}, "fraction"))
}
