package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestLooseInt_Int(t *testing.T) {
	tests := []struct {
		name string
		in   LooseInt
		want int
	}{
		{"unset", LooseInt{}, 0},
		{"number", NewLooseInt(52000), 52000},
		{"numeric string", LooseIntFromString("52000"), 52000},
		{"leading whitespace", LooseIntFromString("  4200"), 4200},
		{"trailing unit", LooseIntFromString("9000km"), 9000},
		{"decimal truncates", LooseIntFromString("12.7"), 12},
		{"negative", LooseIntFromString("-15"), -15},
		{"empty string", LooseIntFromString(""), 0},
		{"garbage", LooseIntFromString("abc"), 0},
		{"sign only", LooseIntFromString("-"), 0},
		{"overflow saturates", LooseIntFromString("99999999999999999999"), math.MaxInt},
		{"negative overflow saturates", LooseIntFromString("-99999999999999999999"), math.MinInt},
		{"huge number", LooseInt{raw: "1000000000000000000000", num: true, set: true}, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Int())
		})
	}
}

func TestLooseInt_Present(t *testing.T) {
	assert.False(t, LooseInt{}.Present())
	assert.False(t, NewLooseInt(0).Present())
	assert.False(t, LooseIntFromString("").Present())
	assert.False(t, LooseIntFromString("   ").Present())
	assert.False(t, LooseIntFromString("0").Present())
	assert.True(t, NewLooseInt(1).Present())
	assert.True(t, LooseIntFromString("abc").Present())
	assert.True(t, LooseIntFromString("-3").Present())
}

// A stored "0" counts as never serviced, the same as a numeric 0.
func TestLooseInt_StringZeroIsNotPresent(t *testing.T) {
	for _, raw := range []string{"0", "00", "0.0", " 0 "} {
		assert.False(t, LooseIntFromString(raw).Present(), raw)
	}

	var part VehiclePart
	require.NoError(t, json.Unmarshal([]byte(`{"lastServiceMileage": "0"}`), &part))
	assert.False(t, part.LastServiceMileage.Present())
	assert.Equal(t, 0, part.LastServiceMileage.Int())
}

func TestLooseInt_JSON(t *testing.T) {
	var doc struct {
		A LooseInt `json:"a"`
		B LooseInt `json:"b"`
		C LooseInt `json:"c"`
		D LooseInt `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": 1e5, "b": "30000", "c": null}`), &doc)
	require.NoError(t, err)
	assert.Equal(t, 100000, doc.A.Int())
	assert.Equal(t, 30000, doc.B.Int())
	assert.False(t, doc.C.Present())
	assert.False(t, doc.D.Present())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 100000, "b": "30000", "c": null, "d": null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &doc))
}

func TestLooseInt_BSON(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"i32": int32(12),
		"i64": int64(40000),
		"dbl": 1500.9,
		"str": "7000",
		"nul": nil,
	})
	require.NoError(t, err)

	var doc struct {
		I32 LooseInt `bson:"i32"`
		I64 LooseInt `bson:"i64"`
		Dbl LooseInt `bson:"dbl"`
		Str LooseInt `bson:"str"`
		Nul LooseInt `bson:"nul"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, 12, doc.I32.Int())
	assert.Equal(t, 40000, doc.I64.Int())
	assert.Equal(t, 1500, doc.Dbl.Int())
	assert.Equal(t, 7000, doc.Str.Int())
	assert.False(t, doc.Nul.Present())

	again, err := bson.Marshal(doc)
	require.NoError(t, err)
	var back bson.M
	require.NoError(t, bson.Unmarshal(again, &back))
	assert.Equal(t, int64(40000), back["i64"])
	assert.Equal(t, "7000", back["str"])
	assert.Nil(t, back["nul"])
}

func TestServiceDate(t *testing.T) {
	tests := []struct {
		name    string
		in      ServiceDate
		present bool
		ok      bool
		want    time.Time
	}{
		{"unset", ServiceDate{}, false, false, time.Time{}},
		{"blank", ServiceDateFromString(" "), false, false, time.Time{}},
		{"date only", ServiceDateFromString("2024-03-15"), true, true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", ServiceDateFromString("2024-03-15T10:30:00Z"), true, true, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"no zone", ServiceDateFromString("2024-03-15T10:30:00"), true, true, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"garbage", ServiceDateFromString("last spring"), true, false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.present, tt.in.Present())
			got, ok := tt.in.Time()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestServiceDate_BSONDateTime(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{"d": at, "s": "2025-01-02"})
	require.NoError(t, err)

	var doc struct {
		D ServiceDate `bson:"d"`
		S ServiceDate `bson:"s"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got, ok := doc.D.Time()
	require.True(t, ok)
	assert.True(t, at.Equal(got))
	got, ok = doc.S.Time()
	require.True(t, ok)
	assert.True(t, at.Equal(got))

	again, err := bson.Marshal(doc)
	require.NoError(t, err)
	var back bson.Raw = again
	assert.Equal(t, bsontype.DateTime, back.Lookup("d").Type)
	assert.Equal(t, at.UnixMilli(), back.Lookup("d").DateTime())
	assert.Equal(t, bsontype.String, back.Lookup("s").Type)
	assert.Equal(t, "2025-01-02", back.Lookup("s").StringValue())
}

func TestParseDrivingStyle(t *testing.T) {
	tests := []struct {
		in    string
		want  DrivingStyle
		known bool
		mult  float64
	}{
		{"calm", DrivingStyleCalm, true, 1.0},
		{"normal", DrivingStyleNormal, true, 0.95},
		{"Aggressive", DrivingStyleAggressive, true, 0.85},
		{"", DrivingStyleNormal, false, 0.95},
		{"sporty", DrivingStyleNormal, false, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, known := ParseDrivingStyle(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
			assert.Equal(t, tt.mult, got.Multiplier())
		})
	}
}

func TestParseInspectionStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    InspectionStatus
		known   bool
		penalty float64
	}{
		{"ok", InspectionOK, true, 0},
		{"warning", InspectionWarning, true, 0.1},
		{" CRITICAL ", InspectionCritical, true, 0.3},
		{"", InspectionOK, false, 0},
		{"broken", InspectionOK, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, known := ParseInspectionStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
			assert.Equal(t, tt.penalty, got.Penalty())
		})
	}
}
