// Package deltas persists batches of editor deltas into the current session.
package deltas

import (
	"encoding/json"
	"fmt"
)

// OperationKind tells inserts from deletes
type OperationKind string

const (
	KindInsert OperationKind = "insert"
	KindDelete OperationKind = "delete"
)

// Operation is one text edit at a character index. On the wire it is
// {"insert": [index, text]} or {"delete": [index, length]}.
type Operation struct {
	Kind   OperationKind
	Index  int
	Text   string // insert only
	Length int    // delete only
}

// Delta is a batch of operations recorded at one instant
type Delta struct {
	Operations  []Operation `json:"operations"`
	TimestampMs uint64      `json:"timestampMs"`
}

// Insert returns an operation inserting text at index
func Insert(index int, text string) Operation {
	return Operation{Kind: KindInsert, Index: index, Text: text}
}

// Delete returns an operation removing length characters at index
func Delete(index, length int) Operation {
	return Operation{Kind: KindDelete, Index: index, Length: length}
}

// MarshalJSON implements json.Marshaler
func (o Operation) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case KindInsert:
		return json.Marshal(map[string][2]interface{}{string(KindInsert): {o.Index, o.Text}})
	case KindDelete:
		return json.Marshal(map[string][2]interface{}{string(KindDelete): {o.Index, o.Length}})
	default:
		return nil, fmt.Errorf("unknown operation kind %q", o.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (o *Operation) UnmarshalJSON(data []byte) error {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("operation must have exactly one kind, got %d", len(raw))
	}

	for kind, args := range raw {
		if len(args) != 2 {
			return fmt.Errorf("%s operation takes 2 arguments, got %d", kind, len(args))
		}

		var index int
		if err := json.Unmarshal(args[0], &index); err != nil {
			return fmt.Errorf("%s index: %w", kind, err)
		}

		switch OperationKind(kind) {
		case KindInsert:
			var text string
			if err := json.Unmarshal(args[1], &text); err != nil {
				return fmt.Errorf("insert text: %w", err)
			}
			*o = Insert(index, text)
		case KindDelete:
			var length int
			if err := json.Unmarshal(args[1], &length); err != nil {
				return fmt.Errorf("delete length: %w", err)
			}
			*o = Delete(index, length)
		default:
			return fmt.Errorf("unknown operation kind %q", kind)
		}
	}
	return nil
}
