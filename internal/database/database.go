// Package database opens the backend selected by database.driver and returns its repositories.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"taskfigma/internal/config"
	"taskfigma/internal/repositories"
	"taskfigma/internal/repositories/memory"
	"taskfigma/internal/repositories/mongostore"
	"taskfigma/internal/repositories/postgres"
)

const connectTimeout = 5 * time.Second

func Open(ctx context.Context, cfg config.DatabaseConfig) (*repositories.Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := OpenPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db), nil
	case "mongo":
		client, err := OpenMongo(ctx, cfg.URL, cfg.Debug)
		if err != nil {
			return nil, err
		}
		return mongostore.NewStore(client, cfg.Name), nil
	case "memory", "":
		log.Println("[db] using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Println("[db] connected to postgres")
	return db, nil
}

func OpenMongo(ctx context.Context, uri string, debug bool) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout)
	if debug {
		opts.SetMonitor(commandLogger())
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Println("[db] connected to mongo")
	return client, nil
}
