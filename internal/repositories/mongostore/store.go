// Package mongostore keeps tasks as documents with embedded comments and activity log. Every
// mutation is one findOneAndUpdate guarded by the task version.
package mongostore

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"taskfigma/internal/apperr"
	"taskfigma/internal/repositories"
)

const (
	tasksCollection    = "tasks"
	projectsCollection = "projects"
	usersCollection    = "users"
)

func NewStore(client *mongo.Client, database string) *repositories.Store {
	db := client.Database(database)
	return &repositories.Store{
		Tasks:    &taskRepository{coll: db.Collection(tasksCollection)},
		Projects: &projectRepository{coll: db.Collection(projectsCollection)},
		Users:    &userRepository{coll: db.Collection(usersCollection)},
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Migrate: func(ctx context.Context) error { return Migrate(ctx, db) },
		Close:   client.Disconnect,
	}
}

// Migrate creates the indexes and realigns project counters with the stored tasks.
func Migrate(ctx context.Context, db *mongo.Database) error {
	tasks := db.Collection(tasksCollection)
	_, err := tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "alias", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "project._id", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return apperr.Store("create task indexes", err)
	}

	cur, err := tasks.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$project._id"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return apperr.Store("count tasks per project", err)
	}
	var counts []struct {
		ProjectID string `bson:"_id"`
		N         int64  `bson:"n"`
	}
	if err := cur.All(ctx, &counts); err != nil {
		return apperr.Store("count tasks per project", err)
	}

	projects := db.Collection(projectsCollection)
	var fixed int64
	for _, c := range counts {
		res, err := projects.UpdateOne(ctx,
			backfillFilter(c.ProjectID, c.N),
			bson.M{"$set": bson.M{"taskSeq": c.N}},
		)
		if err != nil {
			return apperr.Store("backfill task counter", err)
		}
		fixed += res.ModifiedCount
	}
	if fixed > 0 {
		log.Printf("[migrate][mongo] realigned %d project counters", fixed)
	}
	return nil
}

// backfillFilter matches the project when its counter is behind n. Seeded projects may have
// no taskSeq at all, and $lt never matches a missing field.
func backfillFilter(projectID string, n int64) bson.M {
	return bson.M{
		"_id": projectID,
		"$or": bson.A{
			bson.M{"taskSeq": bson.M{"$lt": n}},
			bson.M{"taskSeq": bson.M{"$exists": false}},
		},
	}
}

func mapErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, apperr.ErrConflict)
	}
	return apperr.Store(op, err)
}
