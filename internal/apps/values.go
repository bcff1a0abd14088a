package apps

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"
)

// Values is the chart values document of a release. Its shape is chart
// specific and is not validated beyond being representable as JSON.
type Values map[string]any

// ToYAML converts values to YAML bytes, the form helm reads from stdin.
func (v Values) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(v.orEmpty()); err != nil {
		return nil, &ConfigurationError{Field: "values", Err: fmt.Errorf("encode to YAML: %w", err)}
	}
	if err := encoder.Close(); err != nil {
		return nil, &ConfigurationError{Field: "values", Err: fmt.Errorf("encode to YAML: %w", err)}
	}

	return buf.Bytes(), nil
}

// FromYAML parses a YAML or JSON document into Values. Numbers decode the
// way they do after a round trip through the store.
func FromYAML(data []byte) (Values, error) {
	var v Values
	if err := k8syaml.Unmarshal(data, &v); err != nil {
		return nil, &ConfigurationError{Field: "values", Err: fmt.Errorf("parse YAML: %w", err)}
	}
	if v == nil {
		v = Values{}
	}
	return v, nil
}

// Validate checks that the document survives a JSON round trip, which is
// what the stores persist.
func (v Values) Validate() error {
	if _, err := json.Marshal(v.orEmpty()); err != nil {
		return &ConfigurationError{Field: "values", Err: err}
	}
	return nil
}

// Clone returns a deep copy made through JSON, matching what a store would
// hand back after a write.
func (v Values) Clone() (Values, error) {
	data, err := MarshalValues(v)
	if err != nil {
		return nil, err
	}
	return UnmarshalValues(data)
}

func (v Values) orEmpty() Values {
	if v == nil {
		return Values{}
	}
	return v
}
