package skill

import (
	"fmt"
)

// ParamError reports one invocation argument that failed validation against
// the extension's declared parameters.
type ParamError struct {
	Name    string `json:"name"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Name, e.Message)
}

// paramTypes is the closed set of JSON types a Parameter may declare. An
// empty type means untyped and accepts any value.
var paramTypes = map[string]struct{}{
	"string":  {},
	"integer": {},
	"number":  {},
	"boolean": {},
	"array":   {},
	"object":  {},
}

// validateDeclaration checks a parameter declaration as it crosses the
// registry boundary.
func (p Parameter) validateDeclaration() error {
	if p.Name == "" {
		return fmt.Errorf("parameter has no name")
	}
	if p.Type != "" {
		if _, ok := paramTypes[p.Type]; !ok {
			return fmt.Errorf("parameter %q declares unknown type %q", p.Name, p.Type)
		}
	}
	return nil
}

// ValidateArgs checks an invocation payload against the extension's declared
// parameters. Required parameters without a default must be present, and
// present values must match their declared JSON type. Undeclared arguments
// pass through untouched.
func (e Extension) ValidateArgs(args map[string]any) error {
	for _, p := range e.Parameters {
		value, ok := args[p.Name]
		if !ok {
			if p.Required && p.Default == nil {
				return &ParamError{Name: p.Name, Message: "required parameter is missing"}
			}
			continue
		}
		if !matchesParamType(value, p.Type) {
			return &ParamError{
				Name:    p.Name,
				Value:   value,
				Message: fmt.Sprintf("expected %s, got %T", p.Type, value),
			}
		}
	}
	return nil
}

// matchesParamType reports whether a decoded JSON value satisfies the declared
// parameter type. Nil satisfies every type.
func matchesParamType(value any, declared string) bool {
	if value == nil {
		return true
	}
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch n := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			// JSON decoding yields float64 for every number.
			return n == float64(int64(n))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
