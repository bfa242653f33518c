package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/vehicle-health/internal/condition"
	"github.com/ukydev/vehicle-health/internal/db"
	"github.com/ukydev/vehicle-health/internal/middleware"
	"github.com/ukydev/vehicle-health/internal/models"
	"github.com/ukydev/vehicle-health/internal/notify"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maxBodyBytes   = 1 << 20
	publishTimeout = 5 * time.Second
	maxFleetSize   = 500
)

// ConditionHandler serves vehicle health scores
type ConditionHandler struct {
	scorer    *condition.Scorer
	vehicles  db.VehicleCollection
	snapshots db.SnapshotCollection
	publisher notify.Publisher
}

// NewConditionHandler creates a new condition handler. A nil publisher
// disables snapshot publishing.
func NewConditionHandler(scorer *condition.Scorer, vehicles db.VehicleCollection, snapshots db.SnapshotCollection, publisher notify.Publisher) *ConditionHandler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &ConditionHandler{
		scorer:    scorer,
		vehicles:  vehicles,
		snapshots: snapshots,
		publisher: publisher,
	}
}

// GetCondition handles GET /api/vehicles/{id}/condition
func (h *ConditionHandler) GetCondition(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.scorer.Score(*vehicle))
}

// ListConditions handles GET /api/vehicles/condition. Owners see their own
// vehicles; other roles may narrow the list with ?ownerId=.
func (h *ConditionHandler) ListConditions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	filter := bson.M{}
	if claims.Role == models.RoleOwner {
		filter["ownerId"] = claims.UserID
	} else if ownerID := r.URL.Query().Get("ownerId"); ownerID != "" {
		filter["ownerId"] = ownerID
	}

	cursor, err := h.vehicles.FindVehicles(r.Context(), filter, options.Find().SetLimit(maxFleetSize))
	if err != nil {
		log.WithError(err).Error("Failed to query vehicles")
		http.Error(w, "Failed to load vehicles", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(r.Context())

	var vehicles []models.Vehicle
	if err := cursor.All(r.Context(), &vehicles); err != nil {
		log.WithError(err).Error("Failed to decode vehicles")
		http.Error(w, "Failed to load vehicles", http.StatusInternalServerError)
		return
	}

	now := h.scorer.Now()
	conditions := make([]models.VehicleCondition, 0, len(vehicles))
	for _, v := range vehicles {
		conditions = append(conditions, models.VehicleCondition{
			VehicleID:   v.ID.Hex(),
			OwnerID:     v.OwnerID,
			Make:        v.Make,
			Model:       v.Model,
			ScoreResult: h.scorer.ScoreAt(v, now),
		})
	}
	writeJSON(w, http.StatusOK, conditions)
}

// RecordSnapshot handles POST /api/vehicles/{id}/condition/snapshot
func (h *ConditionHandler) RecordSnapshot(w http.ResponseWriter, r *http.Request) {
	vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	vehicleID := r.PathValue("id")
	now := h.scorer.Now().UTC()
	snapshot := models.NewConditionSnapshot(vehicleID, h.scorer.ScoreAt(*vehicle, now), now)

	id, err := h.snapshots.InsertSnapshot(r.Context(), snapshot)
	if err != nil {
		log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to store condition snapshot")
		http.Error(w, "Failed to store snapshot", http.StatusInternalServerError)
		return
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		snapshot.ID = oid
	}

	// A stored snapshot is not rolled back when publishing fails.
	ctx, cancel := context.WithTimeout(r.Context(), publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, snapshot); err != nil {
		log.WithError(err).WithField("vehicle_id", vehicleID).Warn("Failed to publish condition snapshot")
	}

	writeJSON(w, http.StatusCreated, snapshot)
}

// LatestSnapshot handles GET /api/vehicles/{id}/condition/latest
func (h *ConditionHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadVehicle(w, r); !ok {
		return
	}

	vehicleID := r.PathValue("id")
	snapshot, err := h.snapshots.LatestSnapshot(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, db.ErrSnapshotNotFound) {
			http.Error(w, "No snapshot recorded", http.StatusNotFound)
			return
		}
		log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to load condition snapshot")
		http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// ScoreDocument handles POST /api/condition with a vehicle document in the body
func (h *ConditionHandler) ScoreDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var vehicle models.Vehicle
	if err := json.Unmarshal(body, &vehicle); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.scorer.Score(vehicle))
}

// loadVehicle fetches the vehicle named in the path. Owners only see their own
// vehicles; anyone else's is reported as not found.
func (h *ConditionHandler) loadVehicle(w http.ResponseWriter, r *http.Request) (*models.Vehicle, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}

	vehicleID := r.PathValue("id")
	if vehicleID == "" {
		http.Error(w, "Vehicle ID is required", http.StatusBadRequest)
		return nil, false
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), vehicleID)
	switch {
	case err == nil:
		if claims.Role == models.RoleOwner && vehicle.OwnerID != claims.UserID {
			log.WithFields(log.Fields{
				"vehicle_id": vehicleID,
				"user_id":    claims.UserID,
			}).Warn("Owner requested another owner's vehicle")
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return nil, false
		}
		return vehicle, true
	case errors.Is(err, db.ErrInvalidID):
		http.Error(w, "Invalid vehicle ID", http.StatusBadRequest)
	case errors.Is(err, db.ErrVehicleNotFound):
		http.Error(w, "Vehicle not found", http.StatusNotFound)
	default:
		log.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to load vehicle")
		http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
	}
	return nil, false
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
