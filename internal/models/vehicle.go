package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrivingStyle is the owner's self-reported driving style.
type DrivingStyle string

const (
	DrivingStyleCalm       DrivingStyle = "calm"
	DrivingStyleNormal     DrivingStyle = "normal"
	DrivingStyleAggressive DrivingStyle = "aggressive"
)

// ParseDrivingStyle maps a stored value to a DrivingStyle. Missing and
// unrecognized values fall back to DrivingStyleNormal; ok reports whether the
// value was recognized.
func ParseDrivingStyle(s string) (style DrivingStyle, ok bool) {
	switch DrivingStyle(strings.ToLower(strings.TrimSpace(s))) {
	case DrivingStyleCalm:
		return DrivingStyleCalm, true
	case DrivingStyleNormal:
		return DrivingStyleNormal, true
	case DrivingStyleAggressive:
		return DrivingStyleAggressive, true
	default:
		return DrivingStyleNormal, false
	}
}

// Multiplier returns the factor applied to the aggregate health score.
func (d DrivingStyle) Multiplier() float64 {
	switch d {
	case DrivingStyleCalm:
		return 1.0
	case DrivingStyleNormal:
		return 0.95
	case DrivingStyleAggressive:
		return 0.85
	default:
		return 1.0
	}
}

// InspectionStatus is the result of the last visual inspection of a part.
type InspectionStatus string

const (
	InspectionOK       InspectionStatus = "ok"
	InspectionWarning  InspectionStatus = "warning"
	InspectionCritical InspectionStatus = "critical"
)

// ParseInspectionStatus maps a stored value to an InspectionStatus. Missing
// and unrecognized values fall back to InspectionOK.
func ParseInspectionStatus(s string) (status InspectionStatus, ok bool) {
	switch InspectionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case InspectionOK:
		return InspectionOK, true
	case InspectionWarning:
		return InspectionWarning, true
	case InspectionCritical:
		return InspectionCritical, true
	default:
		return InspectionOK, false
	}
}

// Penalty returns the amount subtracted from a part's weighted score.
func (s InspectionStatus) Penalty() float64 {
	switch s {
	case InspectionWarning:
		return 0.1
	case InspectionCritical:
		return 0.3
	default:
		return 0
	}
}

// VehiclePart is a maintenance-tracked component of a vehicle.
type VehiclePart struct {
	PartID               string      `bson:"partId,omitempty" json:"partId,omitempty"`
	Name                 string      `bson:"name,omitempty" json:"name,omitempty"`
	LastServiceMileage   LooseInt    `bson:"lastServiceMileage" json:"lastServiceMileage"` // km
	LastServiceDate      ServiceDate `bson:"lastServiceDate" json:"lastServiceDate"`
	DefaultLifespanKm    LooseInt    `bson:"defaultLifespanKm" json:"defaultLifespanKm"`
	DefaultLifespanMonth LooseInt    `bson:"defaultLifespanMonth" json:"defaultLifespanMonth"`
	InspectionStatus     string      `bson:"inspectionStatus,omitempty" json:"inspectionStatus,omitempty"` // "ok", "warning", "critical"
}

// Vehicle is an owner's vehicle document with its tracked parts.
type Vehicle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       string             `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	Make          string             `bson:"make,omitempty" json:"make,omitempty"`
	Model         string             `bson:"model,omitempty" json:"model,omitempty"`
	Year          int                `bson:"year,omitempty" json:"year,omitempty"`
	Mileage       LooseInt           `bson:"mileage" json:"mileage"`                               // km
	DrivingStyle  string             `bson:"drivingStyle,omitempty" json:"drivingStyle,omitempty"` // "calm", "normal", "aggressive"
	PartCondition []VehiclePart      `bson:"partCondition" json:"partCondition"`
	UpdatedAt     time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
