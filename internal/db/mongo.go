package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/vehicle-health/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNilCollection    = errors.New("mongo collection is nil")
	ErrInvalidID        = errors.New("invalid vehicle ID")
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrSnapshotNotFound = errors.New("condition snapshot not found")
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCollection wraps the vehicles collection.
type MongoCollection struct {
	Collection *mongo.Collection
}

// mongoVehicleCursor wraps a MongoDB cursor for vehicle queries.
type mongoVehicleCursor struct {
	cursor *mongo.Cursor
}

// All retrieves all results from the cursor.
func (m *mongoVehicleCursor) All(ctx context.Context, out interface{}) error {
	return m.cursor.All(ctx, out)
}

// Close closes the cursor.
func (m *mongoVehicleCursor) Close(ctx context.Context) error {
	return m.cursor.Close(ctx)
}

// FindVehicles queries vehicle records from the collection.
func (c *MongoCollection) FindVehicles(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (VehicleCursor, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	if filter == nil {
		filter = bson.M{}
	}
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &mongoVehicleCursor{cursor: cursor}, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// MongoSnapshotCollection wraps the condition_snapshots collection.
type MongoSnapshotCollection struct {
	Collection *mongo.Collection
}

// InsertSnapshot stores a computed condition snapshot and returns its ID.
func (c *MongoSnapshotCollection) InsertSnapshot(ctx context.Context, snapshot models.ConditionSnapshot) (string, error) {
	if c.Collection == nil {
		return "", ErrNilCollection
	}
	if snapshot.ComputedAt.IsZero() {
		snapshot.ComputedAt = time.Now().UTC()
	}
	res, err := c.Collection.InsertOne(ctx, snapshot)
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// LatestSnapshot returns the most recent snapshot stored for a vehicle.
func (c *MongoSnapshotCollection) LatestSnapshot(ctx context.Context, vehicleID string) (*models.ConditionSnapshot, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "computedAt", Value: -1}})

	var snapshot models.ConditionSnapshot
	err := c.Collection.FindOne(ctx, bson.M{"vehicleId": vehicleID}, opts).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// EnsureSnapshotIndexes creates the index used by LatestSnapshot.
func (c *MongoSnapshotCollection) EnsureSnapshotIndexes(ctx context.Context) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	_, err := c.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "vehicleId", Value: 1}, {Key: "computedAt", Value: -1}},
	})
	return err
}
