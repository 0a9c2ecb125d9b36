package db

import (
	"context"
	"fmt"
	"time"

	"github.com/superdrive/vehicle-ledger/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Archive mirrors committed ledger records into MongoDB. Writes happen after
// the in-memory commit succeeded; the core never waits on or rolls back for
// the mirror.
type Archive struct {
	vehicles    *mongo.Collection
	maintenance *mongo.Collection
	fuel        *mongo.Collection
	reminders   *mongo.Collection
}

// NewArchive creates an archive over the named database.
func NewArchive(client *mongo.Client, dbName string) *Archive {
	database := client.Database(dbName)
	return &Archive{
		vehicles:    database.Collection("vehicles"),
		maintenance: database.Collection("maintenance_events"),
		fuel:        database.Collection("fuel_logs"),
		reminders:   database.Collection("reminders"),
	}
}

// ArchiveVehicle upserts the vehicle document; odometer updates and health
// recomputations rewrite the same record.
func (a *Archive) ArchiveVehicle(ctx context.Context, v models.Vehicle) error {
	if a.vehicles == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := a.vehicles.ReplaceOne(ctx, bson.M{"_id": v.ID}, v, options.Replace().SetUpsert(true))
	return err
}

// ArchiveMaintenance upserts a maintenance event; the scheduled-to-completed
// transition rewrites the record.
func (a *Archive) ArchiveMaintenance(ctx context.Context, ev models.MaintenanceEvent) error {
	if a.maintenance == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := a.maintenance.ReplaceOne(ctx, bson.M{"_id": ev.ID}, ev, options.Replace().SetUpsert(true))
	return err
}

// ArchiveFuelLog upserts a fuel log record.
func (a *Archive) ArchiveFuelLog(ctx context.Context, fl models.FuelLog) error {
	if a.fuel == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := a.fuel.ReplaceOne(ctx, bson.M{"_id": fl.ID}, fl, options.Replace().SetUpsert(true))
	return err
}

// ArchiveReminder upserts a reminder; deferrals and done markers rewrite the
// record.
func (a *Archive) ArchiveReminder(ctx context.Context, rem models.Reminder) error {
	if a.reminders == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := a.reminders.ReplaceOne(ctx, bson.M{"_id": rem.ID}, rem, options.Replace().SetUpsert(true))
	return err
}
