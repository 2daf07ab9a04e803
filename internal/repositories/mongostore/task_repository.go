package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskfigma/internal/apperr"
	"taskfigma/internal/models"
)

type taskRepository struct {
	coll *mongo.Collection
}

func (r *taskRepository) Insert(ctx context.Context, task *models.Task) error {
	task.EnsureCollections()
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return mapErr("insert task", err)
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, mapErr("find task", err)
	}
	t.EnsureCollections()
	return &t, nil
}

func (r *taskRepository) Apply(ctx context.Context, id string, version int64, m *models.TaskMutation) (*models.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t models.Task
	err := r.coll.FindOneAndUpdate(ctx, buildFilter(id, version, m), buildUpdate(m), opts).Decode(&t)
	if err == nil {
		t.EnsureCollections()
		return &t, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mapErr("update task", err)
	}
	return nil, r.explainMiss(ctx, id, version, m)
}

// explainMiss tells apart the reasons a guarded update matched nothing.
func (r *taskRepository) explainMiss(ctx context.Context, id string, version int64, m *models.TaskMutation) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Version != version {
		return apperr.ErrConflict
	}
	if cid := m.TouchesComment(); cid != "" && current.FindComment(cid) < 0 {
		return apperr.NotFound("comment", cid)
	}
	return apperr.ErrConflict
}

func buildQuery(filter models.TaskFilter) bson.M {
	q := bson.M{}
	status := bson.M{}
	if filter.Status != nil {
		status["$eq"] = *filter.Status
	}
	if filter.ExcludeStatus != nil {
		status["$ne"] = *filter.ExcludeStatus
	}
	if len(status) > 0 {
		q["status"] = status
	}
	if filter.DueBefore != nil {
		q["dueDate"] = bson.M{"$lt": *filter.DueBefore}
	}
	return q
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cur, err := r.coll.Find(ctx, buildQuery(filter), opts)
	if err != nil {
		return nil, mapErr("list tasks", err)
	}
	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, mapErr("list tasks", err)
	}
	for i := range tasks {
		tasks[i].EnsureCollections()
	}
	return tasks, nil
}

func (r *taskRepository) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, buildQuery(filter))
	if err != nil {
		return 0, mapErr("count tasks", err)
	}
	return n, nil
}

func (r *taskRepository) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, mapErr("count tasks by status", err)
	}
	var rows []struct {
		Status models.TaskStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, mapErr("count tasks by status", err)
	}
	out := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
