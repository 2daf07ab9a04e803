package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// TaskStatus is stored by name and travels over JSON as a number, like the web client expects.
type TaskStatus int

const (
	StatusUndefined TaskStatus = iota
	StatusTodo
	StatusInProgress
	StatusDone
)

var statusNames = []string{"Undefined", "Todo", "InProgress", "Done"}

// TaskPriority follows the same encoding rules as TaskStatus.
type TaskPriority int

const (
	PriorityUndefined TaskPriority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

var priorityNames = []string{"Undefined", "Low", "Medium", "High"}

// AllStatuses lists the statuses a stored task can have.
func AllStatuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusDone}
}

func (s TaskStatus) String() string { return enumName(statusNames, int(s), "TaskStatus") }
func (s TaskStatus) Valid() bool    { return int(s) >= 0 && int(s) < len(statusNames) }

func ParseTaskStatus(v string) (TaskStatus, error) {
	n, err := parseEnum(statusNames, v, "status")
	return TaskStatus(n), err
}

func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	n, err := unmarshalEnumJSON(statusNames, b, "status")
	if err != nil {
		return err
	}
	*s = TaskStatus(n)
	return nil
}

func (s TaskStatus) Value() (driver.Value, error) { return s.String(), nil }

func (s *TaskStatus) Scan(src any) error {
	n, err := scanEnum(statusNames, src, "status")
	if err != nil {
		return err
	}
	*s = TaskStatus(n)
	return nil
}

func (s TaskStatus) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(s.String())
}

func (s *TaskStatus) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	n, err := unmarshalEnumBSON(statusNames, t, data, "status")
	if err != nil {
		return err
	}
	*s = TaskStatus(n)
	return nil
}

func (p TaskPriority) String() string { return enumName(priorityNames, int(p), "TaskPriority") }
func (p TaskPriority) Valid() bool    { return int(p) >= 0 && int(p) < len(priorityNames) }

func ParseTaskPriority(v string) (TaskPriority, error) {
	n, err := parseEnum(priorityNames, v, "priority")
	return TaskPriority(n), err
}

func (p *TaskPriority) UnmarshalJSON(b []byte) error {
	n, err := unmarshalEnumJSON(priorityNames, b, "priority")
	if err != nil {
		return err
	}
	*p = TaskPriority(n)
	return nil
}

func (p TaskPriority) Value() (driver.Value, error) { return p.String(), nil }

func (p *TaskPriority) Scan(src any) error {
	n, err := scanEnum(priorityNames, src, "priority")
	if err != nil {
		return err
	}
	*p = TaskPriority(n)
	return nil
}

func (p TaskPriority) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(p.String())
}

func (p *TaskPriority) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	n, err := unmarshalEnumBSON(priorityNames, t, data, "priority")
	if err != nil {
		return err
	}
	*p = TaskPriority(n)
	return nil
}

// ---- helpers ----

func enumName(names []string, n int, kind string) string {
	if n >= 0 && n < len(names) {
		return names[n]
	}
	return fmt.Sprintf("%s(%d)", kind, n)
}

// parseEnum accepts a case-insensitive name or a decimal index.
func parseEnum(names []string, v, kind string) (int, error) {
	v = strings.TrimSpace(v)
	for i, name := range names {
		if strings.EqualFold(name, v) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(names) {
		return n, nil
	}
	return 0, fmt.Errorf("unknown %s %q", kind, v)
}

func unmarshalEnumJSON(names []string, b []byte, kind string) (int, error) {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return 0, nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		return parseEnum(names, s, kind)
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return 0, fmt.Errorf("%s must be a number or a name: %w", kind, err)
	}
	if n < 0 || n >= len(names) {
		return 0, fmt.Errorf("unknown %s %d", kind, n)
	}
	return n, nil
}

func scanEnum(names []string, src any, kind string) (int, error) {
	switch v := src.(type) {
	case string:
		return parseEnum(names, v, kind)
	case []byte:
		return parseEnum(names, string(v), kind)
	case int64:
		return parseEnum(names, strconv.FormatInt(v, 10), kind)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("cannot scan %T into %s", src, kind)
}

func unmarshalEnumBSON(names []string, t bsontype.Type, data []byte, kind string) (int, error) {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		return parseEnum(names, raw.StringValue(), kind)
	case bsontype.Int32:
		return parseEnum(names, strconv.Itoa(int(raw.Int32())), kind)
	case bsontype.Int64:
		return parseEnum(names, strconv.FormatInt(raw.Int64(), 10), kind)
	case bsontype.Null:
		return 0, nil
	}
	return 0, fmt.Errorf("cannot decode bson %s into %s", t, kind)
}
