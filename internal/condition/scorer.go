// Package condition computes vehicle health scores from part service history.
package condition

import (
	"math"
	"strings"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-health/internal/models"
)

const (
	mileageWeight = 0.6
	timeWeight    = 0.4
	unnamedPart   = "Unnamed Part"
)

// SkipReason explains why a part was left out of the score.
type SkipReason string

const (
	SkipNoServiceMileage SkipReason = "missing lastServiceMileage"
	SkipNoServiceDate    SkipReason = "missing lastServiceDate"
	SkipBadServiceDate   SkipReason = "unparseable lastServiceDate"
	SkipNoLifespanKm     SkipReason = "missing or non-positive defaultLifespanKm"
	SkipNoLifespanMonth  SkipReason = "missing or non-positive defaultLifespanMonth"
)

// PartSkip identifies a part that had too little data to score.
type PartSkip struct {
	Index  int        `json:"index"`
	PartID string     `json:"partId"`
	Name   string     `json:"name"`
	Reason SkipReason `json:"reason"`
}

// Compute returns the health score of v as of now.
//
// Each part with a complete service record is scored from how much of its
// service interval has been used, by distance (60%) and by whole calendar
// months (40%), less an inspection penalty, clamped to [0,1]. The vehicle
// score is the mean of the part scores scaled by the driving style
// multiplier. Parts with incomplete records are omitted, and a vehicle with
// no scorable parts scores 0.
//
// Compute does not modify v and is safe for concurrent use.
func Compute(v models.Vehicle, now time.Time) models.ScoreResult {
	result, _ := evaluate(v, now)
	return result
}

// Explain returns the parts Compute would omit, in input order.
func Explain(v models.Vehicle, now time.Time) []PartSkip {
	_, skips := evaluate(v, now)
	return skips
}

func evaluate(v models.Vehicle, now time.Time) (models.ScoreResult, []PartSkip) {
	result := models.ScoreResult{PartScores: []models.PartScore{}}
	var skips []PartSkip

	current := v.Mileage.Int()
	var total float64
	for i, part := range v.PartCondition {
		if reason, ok := scorable(part); !ok {
			skips = append(skips, PartSkip{
				Index:  i,
				PartID: partID(part),
				Name:   partName(part),
				Reason: reason,
			})
			continue
		}

		mileageSince := float64(current) - float64(part.LastServiceMileage.Int())
		mileageRatio := mileageSince / float64(part.DefaultLifespanKm.Int())
		mileageScore := 1 - math.Min(mileageRatio, 1)

		serviced, _ := part.LastServiceDate.Time()
		timeRatio := float64(monthsSince(serviced, now)) / float64(part.DefaultLifespanMonth.Int())
		timeScore := 1 - math.Min(timeRatio, 1)

		status, _ := models.ParseInspectionStatus(part.InspectionStatus)
		penalty := status.Penalty()

		// mileageScore exceeds 1 when the odometer went backwards; the clamp absorbs it.
		weighted := clamp(mileageScore*mileageWeight+timeScore*timeWeight-penalty, 0, 1)

		result.PartScores = append(result.PartScores, models.PartScore{
			PartID:       partID(part),
			Name:         partName(part),
			Score:        int(round(weighted * 100)),
			MileageScore: round2(mileageScore),
			TimeScore:    round2(timeScore),
			Penalty:      penalty,
		})
		total += weighted
	}

	if n := len(result.PartScores); n > 0 {
		style, _ := models.ParseDrivingStyle(v.DrivingStyle)
		average := total / float64(n)
		result.TotalScore = int(round(clamp(average*100*style.Multiplier(), 0, 100)))
	}
	return result, skips
}

func scorable(p models.VehiclePart) (SkipReason, bool) {
	switch {
	case !p.LastServiceMileage.Present():
		return SkipNoServiceMileage, false
	case !p.LastServiceDate.Present():
		return SkipNoServiceDate, false
	case p.DefaultLifespanKm.Int() <= 0:
		return SkipNoLifespanKm, false
	case p.DefaultLifespanMonth.Int() <= 0:
		return SkipNoLifespanMonth, false
	}
	if _, ok := p.LastServiceDate.Time(); !ok {
		return SkipBadServiceDate, false
	}
	return "", true
}

// monthsSince counts calendar month boundaries between the service date and
// now. Days within the month are ignored.
func monthsSince(serviced, now time.Time) int {
	return (now.Year()-serviced.Year())*12 + int(now.Month()) - int(serviced.Month())
}

func partID(p models.VehiclePart) string {
	if p.PartID != "" {
		return p.PartID
	}
	return slugify(p.Name)
}

func partName(p models.VehiclePart) string {
	switch {
	case p.Name != "":
		return p.Name
	case p.PartID != "":
		return p.PartID
	default:
		return unnamedPart
	}
}

// slugify lowercases s and joins its letter and digit runs with hyphens.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// round rounds half up.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func round2(x float64) float64 {
	return round(x*100) / 100
}

// Scorer scores vehicles against a clock and logs what it had to skip.
type Scorer struct {
	clock  func() time.Time
	logger log.FieldLogger
}

// NewScorer creates a scorer. A nil clock uses time.Now and a nil logger
// uses the logrus standard logger.
func NewScorer(clock func() time.Time, logger log.FieldLogger) *Scorer {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Scorer{clock: clock, logger: logger}
}

// Now returns the scorer's current time.
func (s *Scorer) Now() time.Time {
	return s.clock()
}

// Score computes the health of v at the scorer's current time.
func (s *Scorer) Score(v models.Vehicle) models.ScoreResult {
	return s.ScoreAt(v, s.clock())
}

// ScoreAt computes the health of v as of now, logging like Score.
func (s *Scorer) ScoreAt(v models.Vehicle, now time.Time) models.ScoreResult {
	result, skips := evaluate(v, now)

	entry := s.logger.WithField("vehicle_id", vehicleRef(v))
	if v.DrivingStyle != "" {
		if _, ok := models.ParseDrivingStyle(v.DrivingStyle); !ok {
			entry.WithField("driving_style", v.DrivingStyle).Warn("Unrecognized driving style, using normal")
		}
	}
	for _, p := range v.PartCondition {
		if p.InspectionStatus == "" {
			continue
		}
		if _, ok := models.ParseInspectionStatus(p.InspectionStatus); !ok {
			entry.WithFields(log.Fields{
				"part_id":           partID(p),
				"inspection_status": p.InspectionStatus,
			}).Warn("Unrecognized inspection status, using ok")
		}
	}
	for _, skip := range skips {
		entry.WithFields(log.Fields{
			"part_id": skip.PartID,
			"reason":  skip.Reason,
		}).Warn("Part skipped from condition score")
	}
	entry.WithFields(log.Fields{
		"total_score":  result.TotalScore,
		"scored_parts": len(result.PartScores),
		"skipped":      len(skips),
	}).Debug("Computed vehicle condition")
	return result
}

func vehicleRef(v models.Vehicle) string {
	if v.ID.IsZero() {
		return ""
	}
	return v.ID.Hex()
}
