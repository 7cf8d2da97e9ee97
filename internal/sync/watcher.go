// Package sync implements the Change-Stream Synchronisers (C8): one
// long-running watcher per projected resource (dynamic key models, keys,
// levels, node-group filters), each consuming the store's change feed and
// applying updates to the corresponding in-memory registry via the
// Projector interface, with a polling fallback for deployments that
// don't support change streams.
package sync

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Polqt/hieraengine/internal/store"
)

// mongoChangeStreamUnsupported is the server error code returned when the
// deployment topology doesn't support change streams (e.g. a standalone
// mongod rather than a replica set).
const mongoChangeStreamUnsupported = 40573

// Op is a change-feed operation type.
type Op string

const (
	OpInsert  Op = "insert"
	OpUpdate  Op = "update"
	OpReplace Op = "replace"
	OpDelete  Op = "delete"
)

// Event is one projected change-feed entry.
type Event struct {
	Op           Op
	DocumentID   any
	FullDocument bson.Raw
}

// Projector applies change-feed events and initial-load documents to an
// in-memory registry. LoadInitial must be idempotent: it is called once at
// startup before the watcher declares readiness, and again after any
// change-stream error forces a fresh snapshot.
type Projector interface {
	LoadInitial(ctx context.Context, coll store.Collection) error
	Apply(ctx context.Context, event Event) error
}

// Watcher drives one Projector from one collection's change feed, falling
// back to periodic polling (full reload) when the deployment doesn't
// support change streams.
type Watcher struct {
	Name         string
	Collection   store.Collection
	Projector    Projector
	Log          *zap.Logger
	PollInterval time.Duration
}

// Run performs the initial snapshot load, then watches the change feed
// until ctx is cancelled, restarting on any transient error. It blocks
// until ctx is done or an unrecoverable error occurs.
func (w *Watcher) Run(ctx context.Context) error {
	if w.PollInterval == 0 {
		w.PollInterval = 10 * time.Second
	}
	if err := w.Projector.LoadInitial(ctx, w.Collection); err != nil {
		return err
	}
	w.Log.Info("synchroniser snapshot loaded", zap.String("resource", w.Name))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := w.watchOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if isChangeStreamUnsupported(err) {
			w.Log.Warn("change streams unsupported, falling back to polling", zap.String("resource", w.Name))
			return w.pollLoop(ctx)
		}
		if err != nil {
			w.Log.Error("synchroniser change stream error, reloading snapshot", zap.String("resource", w.Name), zap.Error(err))
		}
		if err := w.Projector.LoadInitial(ctx, w.Collection); err != nil {
			w.Log.Error("synchroniser snapshot reload failed", zap.String("resource", w.Name), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (w *Watcher) watchOnce(ctx context.Context) error {
	pipeline := bson.A{}
	stream, err := w.Collection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var raw struct {
			OperationType string `bson:"operationType"`
			DocumentKey   struct {
				ID any `bson:"_id"`
			} `bson:"documentKey"`
			FullDocument bson.Raw `bson:"fullDocument"`
		}
		if err := stream.Decode(&raw); err != nil {
			w.Log.Error("decode change event failed", zap.String("resource", w.Name), zap.Error(err))
			continue
		}
		event := Event{
			Op:           Op(raw.OperationType),
			DocumentID:   raw.DocumentKey.ID,
			FullDocument: raw.FullDocument,
		}
		if err := w.Projector.Apply(ctx, event); err != nil {
			w.Log.Error("apply change event failed", zap.String("resource", w.Name), zap.Error(err))
		}
	}
	return stream.Err()
}

func (w *Watcher) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Projector.LoadInitial(ctx, w.Collection); err != nil {
				w.Log.Error("polling reload failed", zap.String("resource", w.Name), zap.Error(err))
			}
		}
	}
}

func isChangeStreamUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == mongoChangeStreamUnsupported
	}
	return false
}
