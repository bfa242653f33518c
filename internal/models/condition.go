package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartScore is the health breakdown of a single part.
type PartScore struct {
	PartID       string  `bson:"partId" json:"partId"`
	Name         string  `bson:"name" json:"name"`
	Score        int     `bson:"score" json:"score"`               // 0-100
	MileageScore float64 `bson:"mileageScore" json:"mileageScore"` // 0-1, 2 decimals
	TimeScore    float64 `bson:"timeScore" json:"timeScore"`       // 0-1, 2 decimals
	Penalty      float64 `bson:"penalty" json:"penalty"`
}

// ScoreResult is the computed health of a vehicle.
type ScoreResult struct {
	TotalScore int         `bson:"totalScore" json:"totalScore"` // 0-100
	PartScores []PartScore `bson:"partScores" json:"partScores"`
}

// ConditionSnapshot is a ScoreResult persisted for a vehicle at a point in time.
type ConditionSnapshot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID  string             `bson:"vehicleId" json:"vehicleId"`
	TotalScore int                `bson:"totalScore" json:"totalScore"`
	PartScores []PartScore        `bson:"partScores" json:"partScores"`
	ComputedAt time.Time          `bson:"computedAt" json:"computedAt"`
}

// NewConditionSnapshot wraps a result for persistence.
func NewConditionSnapshot(vehicleID string, result ScoreResult, at time.Time) ConditionSnapshot {
	return ConditionSnapshot{
		VehicleID:  vehicleID,
		TotalScore: result.TotalScore,
		PartScores: result.PartScores,
		ComputedAt: at,
	}
}

// VehicleCondition is one row of a fleet condition overview.
type VehicleCondition struct {
	VehicleID string `json:"vehicleId"`
	OwnerID   string `json:"ownerId,omitempty"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	ScoreResult
}
