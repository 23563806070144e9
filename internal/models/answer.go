package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerValue is what a student submitted for one question: a single value,
// a list of values (checkboxes), or nothing.
type AnswerValue struct {
	values []string
	list   bool
	set    bool
}

func SingleAnswer(value string) AnswerValue {
	return AnswerValue{values: []string{value}, set: true}
}

func ListAnswer(values ...string) AnswerValue {
	cp := make([]string, len(values))
	copy(cp, values)
	return AnswerValue{values: cp, list: true, set: true}
}

func (a AnswerValue) IsNull() bool {
	return !a.set
}

func (a AnswerValue) IsList() bool {
	return a.set && a.list
}

// Values returns a copy of the submitted values.
func (a AnswerValue) Values() []string {
	cp := make([]string, len(a.values))
	copy(cp, a.values)
	return cp
}

// First returns the single value, or the first element of a list.
func (a AnswerValue) First() (string, bool) {
	if !a.set || len(a.values) == 0 {
		return "", false
	}
	return a.values[0], true
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case !a.set:
		return []byte("null"), nil
	case a.list:
		if a.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.values)
	default:
		return json.Marshal(a.values[0])
	}
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = AnswerValue{}
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("invalid answer list: %w", err)
		}
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			value, err := scalarToString(item)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		*a = AnswerValue{values: values, list: true, set: true}
		return nil
	}

	value, err := scalarToString(data)
	if err != nil {
		return err
	}
	*a = SingleAnswer(value)
	return nil
}

// scalarToString accepts strings, numbers and booleans. True/false answers
// often arrive as JSON booleans.
func scalarToString(data json.RawMessage) (string, error) {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return "", fmt.Errorf("invalid answer value: %w", err)
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported answer value %s", string(data))
	}
}
