package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// LooseInt is an integer field that may be stored as a number or as a string.
// Vehicle documents are written by forms that do not enforce a numeric type,
// so odometer readings show up as 52000, 52000.0 or "52000".
type LooseInt struct {
	raw string
	num bool
	set bool
}

// NewLooseInt returns a LooseInt holding a numeric value.
func NewLooseInt(n int) LooseInt {
	return LooseInt{raw: strconv.Itoa(n), num: true, set: true}
}

// LooseIntFromString returns a LooseInt holding a string value.
func LooseIntFromString(s string) LooseInt {
	return LooseInt{raw: s, set: true}
}

// Int parses the value permissively: leading whitespace is skipped and the
// longest leading integer is used ("12.7" is 12, "9000km" is 9000). Anything
// that does not start with an integer yields 0, and values beyond the int range
// saturate at math.MaxInt or math.MinInt.
func (l LooseInt) Int() int {
	if !l.set {
		return 0
	}
	return parseLeadingInt(l.raw)
}

// Present reports whether the field holds a usable value. Missing, null,
// blank and zero values are not present.
func (l LooseInt) Present() bool {
	if !l.set {
		return false
	}
	s := strings.TrimSpace(l.raw)
	if s == "" {
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		return false
	}
	return true
}

// String returns the value as it was stored.
func (l LooseInt) String() string {
	return l.raw
}

func (l *LooseInt) setFloat(f float64) {
	*l = LooseInt{raw: strconv.FormatFloat(f, 'f', -1, 64), num: true, set: true}
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (l *LooseInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch {
	case s == "null":
		*l = LooseInt{}
		return nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*l = LooseIntFromString(str)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("loose int: unsupported value %s", s)
	}
	l.setFloat(f)
	return nil
}

// MarshalJSON writes the value back in the form it was read.
func (l LooseInt) MarshalJSON() ([]byte, error) {
	if !l.set {
		return []byte("null"), nil
	}
	if l.num {
		return []byte(l.raw), nil
	}
	return json.Marshal(l.raw)
}

// UnmarshalBSONValue accepts int32, int64, double, string and null.
func (l *LooseInt) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = LooseInt{}
	case bsontype.Int32:
		l.setFloat(float64(v.Int32()))
	case bsontype.Int64:
		*l = LooseInt{raw: strconv.FormatInt(v.Int64(), 10), num: true, set: true}
	case bsontype.Double:
		l.setFloat(v.Double())
	case bsontype.String:
		*l = LooseIntFromString(v.StringValue())
	default:
		return fmt.Errorf("loose int: cannot decode bson %s", t)
	}
	return nil
}

// MarshalBSONValue stores numbers as int64 or double and strings unchanged.
func (l LooseInt) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !l.set {
		return bsontype.Null, nil, nil
	}
	if l.num {
		if n, err := strconv.ParseInt(l.raw, 10, 64); err == nil {
			return bsontype.Int64, bsoncore.AppendInt64(nil, n), nil
		}
		if f, err := strconv.ParseFloat(l.raw, 64); err == nil {
			return bsontype.Double, bsoncore.AppendDouble(nil, f), nil
		}
	}
	return bsontype.String, bsoncore.AppendString(nil, l.raw), nil
}

func parseLeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

var serviceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ServiceDate is a calendar date stored either as an ISO string or as a BSON
// datetime.
type ServiceDate struct {
	raw string
	t   time.Time
	set bool
	// native is set for dates that came from a time.Time or BSON datetime.
	native bool
}

// NewServiceDate returns a ServiceDate holding t.
func NewServiceDate(t time.Time) ServiceDate {
	return ServiceDate{raw: t.Format(time.RFC3339), t: t, set: true, native: true}
}

// ServiceDateFromString returns a ServiceDate holding an ISO date string.
func ServiceDateFromString(s string) ServiceDate {
	d := ServiceDate{raw: s, set: true}
	d.t, _ = parseServiceDate(s)
	return d
}

// Present reports whether a non-blank date was stored.
func (d ServiceDate) Present() bool {
	return d.set && strings.TrimSpace(d.raw) != ""
}

// Time returns the parsed date. ok is false when the stored value is missing
// or is not a recognizable ISO date.
func (d ServiceDate) Time() (t time.Time, ok bool) {
	if !d.Present() || d.t.IsZero() {
		return time.Time{}, false
	}
	return d.t, true
}

// String returns the value as it was stored.
func (d ServiceDate) String() string {
	return d.raw
}

func parseServiceDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range serviceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("service date: unrecognized format %q", s)
}

// UnmarshalJSON accepts a JSON string or null.
func (d *ServiceDate) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*d = ServiceDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("service date: %w", err)
	}
	*d = ServiceDateFromString(s)
	return nil
}

// MarshalJSON writes the stored string, or null.
func (d ServiceDate) MarshalJSON() ([]byte, error) {
	if !d.set {
		return []byte("null"), nil
	}
	return json.Marshal(d.raw)
}

// UnmarshalBSONValue accepts a string, a datetime or null.
func (d *ServiceDate) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*d = ServiceDate{}
	case bsontype.String:
		*d = ServiceDateFromString(v.StringValue())
	case bsontype.DateTime:
		*d = NewServiceDate(time.UnixMilli(v.DateTime()).UTC())
	default:
		return fmt.Errorf("service date: cannot decode bson %s", t)
	}
	return nil
}

// MarshalBSONValue stores a BSON datetime for native dates and the original
// string otherwise.
func (d ServiceDate) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !d.set {
		return bsontype.Null, nil, nil
	}
	if d.native {
		return bsontype.DateTime, bsoncore.AppendDateTime(nil, d.t.UnixMilli()), nil
	}
	return bsontype.String, bsoncore.AppendString(nil, d.raw), nil
}
