package gtd

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParamSpec describes one tunable policy parameter.
type ParamSpec struct {
	Type        string      `json:"type"` // "int", "float", "bool"
	Description string      `json:"description"`
	Default     interface{} `json:"default"`
	Min         *float64    `json:"min,omitempty"`
	Max         *float64    `json:"max,omitempty"`
}

type ParamSchema map[string]ParamSpec

func bound(v float64) *float64 { return &v }

// ValidateParams checks supplied parameters against a schema. Unknown keys
// and out-of-bounds or mistyped values are reported as errors.
func ValidateParams(schema ParamSchema, params map[string]interface{}) error {
	for key, value := range params {
		spec, ok := schema[key]
		if !ok {
			return fmt.Errorf("unknown parameter %q", key)
		}
		num, isNum := toFloat(value)
		switch spec.Type {
		case "int":
			if !isNum || num != math.Trunc(num) {
				return fmt.Errorf("parameter %q must be an integer, got %v", key, value)
			}
		case "float":
			if !isNum {
				return fmt.Errorf("parameter %q must be a number, got %v", key, value)
			}
		case "bool":
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("parameter %q must be a boolean, got %v", key, value)
			}
			continue
		}
		if spec.Min != nil && num < *spec.Min {
			return fmt.Errorf("parameter %q below minimum %v: %v", key, *spec.Min, value)
		}
		if spec.Max != nil && num > *spec.Max {
			return fmt.Errorf("parameter %q above maximum %v: %v", key, *spec.Max, value)
		}
	}
	return nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// paramFloat reads a float parameter, falling back to the schema default.
func paramFloat(schema ParamSchema, params map[string]interface{}, key string) float64 {
	if params != nil {
		if v, ok := params[key]; ok {
			if f, isNum := toFloat(v); isNum {
				return f
			}
		}
	}
	f, _ := toFloat(schema[key].Default)
	return f
}

// paramInt reads an int parameter, falling back to the schema default.
func paramInt(schema ParamSchema, params map[string]interface{}, key string) int {
	return int(paramFloat(schema, params, key))
}
