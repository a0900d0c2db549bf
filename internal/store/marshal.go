package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/loopplan/internal/plan"
)

// marshalDescriptor converts a plan descriptor to canonical JSON TEXT for
// storage.
func marshalDescriptor(d plan.PlanDescriptor) (string, error) {
	data, err := d.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal descriptor: %w", err)
	}
	return string(data), nil
}

// unmarshalDescriptor parses stored descriptor JSON.
func unmarshalDescriptor(data string) (plan.PlanDescriptor, error) {
	var d plan.PlanDescriptor
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return plan.PlanDescriptor{}, fmt.Errorf("unmarshal descriptor: %w", err)
	}
	if d.Bindings == nil {
		d.Bindings = []plan.BindingDescriptor{}
	}
	return d, nil
}
