package db

import (
	"context"

	"github.com/ukydev/vehicle-health/internal/models"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VehicleCollection defines the read operations the scorer needs on vehicle documents.
type VehicleCollection interface {
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error)
}

// VehicleCursor defines the interface for vehicle cursor operations.
type VehicleCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// SnapshotCollection defines the interface for condition snapshot operations.
type SnapshotCollection interface {
	InsertSnapshot(ctx context.Context, snapshot models.ConditionSnapshot) (string, error)
	LatestSnapshot(ctx context.Context, vehicleID string) (*models.ConditionSnapshot, error)
}
