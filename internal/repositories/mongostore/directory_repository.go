package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
)

var byCreation = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

type projectRepository struct {
	coll *mongo.Collection
}

func (r *projectRepository) Store(ctx context.Context, p *models.Project) error {
	_, err := r.coll.InsertOne(ctx, bson.M{
		"_id":         p.ID,
		"projectName": p.ProjectName,
		"taskSeq":     int64(0),
		"createdAt":   time.Now().UTC(),
	})
	if err != nil {
		return mapErr("insert project", err)
	}
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, mapErr("find project", err)
	}
	return &p, nil
}

func (r *projectRepository) FindAll(ctx context.Context) ([]models.Project, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, byCreation)
	if err != nil {
		return nil, mapErr("list projects", err)
	}
	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr("list projects", err)
	}
	return out, nil
}

func (r *projectRepository) NextTaskNumber(ctx context.Context, projectID string) (int64, error) {
	var row struct {
		TaskSeq int64 `bson:"taskSeq"`
	}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": projectID},
		bson.M{"$inc": bson.M{"taskSeq": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperr.NotFound("project", projectID)
		}
		return 0, mapErr("next task number", err)
	}
	return row.TaskSeq, nil
}

type userRepository struct {
	coll *mongo.Collection
}

func (r *userRepository) Store(ctx context.Context, u *models.User) error {
	_, err := r.coll.InsertOne(ctx, bson.M{"_id": u.ID, "name": u.Name, "createdAt": time.Now().UTC()})
	if err != nil {
		return mapErr("insert user", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, mapErr("find user", err)
	}
	return &u, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	out := []models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, mapErr("find users", err)
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr("find users", err)
	}
	return out, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]models.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, byCreation)
	if err != nil {
		return nil, mapErr("list users", err)
	}
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr("list users", err)
	}
	return out, nil
}
