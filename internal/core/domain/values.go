package domain

import (
	"encoding/json"

	"go.trai.ch/zerr"
)

// ValueKind tags the closed set of task parameter value shapes that may
// cross a process boundary.
type ValueKind string

const (
	// KindPrimitive is a scalar string value.
	KindPrimitive ValueKind = "primitive"
	// KindItemHandle is a single item reference.
	KindItemHandle ValueKind = "item"
	// KindItemHandleArray is an ordered list of item references.
	KindItemHandleArray ValueKind = "items"
)

// ItemHandle is a serializable reference to a build item. Live object
// references never cross the wire; an item is always reduced to its spec
// plus metadata.
type ItemHandle struct {
	Spec     string            `json:"spec"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TaskValue is the serializable variant for task parameters:
// Primitive | ItemHandle | ItemHandleArray.
type TaskValue struct {
	Kind      ValueKind
	Primitive string
	Item      *ItemHandle
	Array     []ItemHandle
}

// PrimitiveValue wraps a scalar string.
func PrimitiveValue(s string) TaskValue {
	return TaskValue{Kind: KindPrimitive, Primitive: s}
}

// ItemValue wraps a single item handle.
func ItemValue(h ItemHandle) TaskValue {
	return TaskValue{Kind: KindItemHandle, Item: &h}
}

// ItemArrayValue wraps a list of item handles.
func ItemArrayValue(hs []ItemHandle) TaskValue {
	return TaskValue{Kind: KindItemHandleArray, Array: hs}
}

type taskValueEnvelope struct {
	Kind  ValueKind       `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as a tagged envelope keyed by ValueKind.
func (v TaskValue) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindPrimitive:
		payload = v.Primitive
	case KindItemHandle:
		payload = v.Item
	case KindItemHandleArray:
		payload = v.Array
	default:
		return nil, zerr.With(ErrUnknownValueKind, "kind", string(v.Kind))
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taskValueEnvelope{Kind: v.Kind, Value: raw})
}

// UnmarshalJSON decodes a tagged envelope. Kinds outside the closed set are
// rejected rather than passed through.
func (v *TaskValue) UnmarshalJSON(data []byte) error {
	var env taskValueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	switch env.Kind {
	case KindPrimitive:
		v.Item, v.Array = nil, nil
		if err := json.Unmarshal(env.Value, &v.Primitive); err != nil {
			return err
		}
	case KindItemHandle:
		v.Primitive, v.Array = "", nil
		v.Item = &ItemHandle{}
		if err := json.Unmarshal(env.Value, v.Item); err != nil {
			return err
		}
	case KindItemHandleArray:
		v.Primitive, v.Item = "", nil
		if err := json.Unmarshal(env.Value, &v.Array); err != nil {
			return err
		}
	default:
		return zerr.With(ErrUnknownValueKind, "kind", string(env.Kind))
	}

	v.Kind = env.Kind
	return nil
}
