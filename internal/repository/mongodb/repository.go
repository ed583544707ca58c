package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oshokin/pv-alarm/internal/logger"
	"github.com/oshokin/pv-alarm/internal/repository/document"
)

const (
	// DefaultDatabase is the database holding the alarm configuration.
	DefaultDatabase = "mailpy-db"

	entriesCollection    = "entries"
	groupsCollection     = "groups"
	conditionsCollection = "conditions"
)

// Repository stores the configuration in MongoDB.
type Repository struct {
	// client is the driver connection pool.
	client *mongo.Client
	// db is the configuration database.
	db *mongo.Database
}

var _ document.Repository = (*Repository)(nil)

// Connect opens a connection to uri and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Repository{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Groups returns every group.
func (r *Repository) Groups(ctx context.Context) ([]document.Group, error) {
	var groups []document.Group
	if err := r.findAll(ctx, groupsCollection, options.Find(), &groups); err != nil {
		return nil, err
	}

	for i := range groups {
		if groups[i].ID == "" {
			groups[i].ID = groups[i].Name
		}
	}

	return groups, nil
}

// Entries returns every entry ordered by ID with trimmed fields.
func (r *Repository) Entries(ctx context.Context) ([]document.Entry, error) {
	var entries []document.Entry

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.findAll(ctx, entriesCollection, findOptions, &entries); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i] = entries[i].Normalize()
	}

	return entries, nil
}

// Conditions returns the conditions collection.
func (r *Repository) Conditions(ctx context.Context) ([]document.Condition, error) {
	var conditions []document.Condition
	if err := r.findAll(ctx, conditionsCollection, options.Find(), &conditions); err != nil {
		return nil, err
	}

	return conditions, nil
}

// CreateGroup inserts a group unless one with the same name exists.
func (r *Repository) CreateGroup(ctx context.Context, group document.Group) (bool, error) {
	_, err := r.findGroup(ctx, group.Name)

	switch {
	case err == nil:
		logger.WarnKV(ctx, "Group already exists", "group", group.Name)
		return false, nil
	case !errors.Is(err, document.ErrNotFound):
		return false, err
	}

	result, err := r.db.Collection(groupsCollection).InsertOne(ctx, groupDocument(group))
	if err != nil {
		return false, fmt.Errorf("insert group %s: %w", group.Name, err)
	}

	logger.InfoKV(ctx, "Inserted group", "group", group.Name, "id", idString(result.InsertedID))

	return true, nil
}

// CreateEntry inserts an entry, creating its group if it is missing.
// An unknown condition is logged but does not block the insert.
func (r *Repository) CreateEntry(ctx context.Context, entry document.Entry) (string, error) {
	entry = entry.Normalize()
	if entry.Group == "" {
		return "", document.ErrGroupRequired
	}

	group, err := r.findGroup(ctx, entry.Group)
	if errors.Is(err, document.ErrNotFound) {
		if _, err = r.CreateGroup(ctx, document.Group{Name: entry.Group, Enabled: true}); err != nil {
			return "", err
		}

		group, err = r.findGroup(ctx, entry.Group)
	}

	if err != nil {
		return "", err
	}

	entry.GroupID = group.ID

	err = r.db.Collection(conditionsCollection).FindOne(ctx, bson.M{"name": entry.Condition}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.ErrorKV(ctx, "Condition not found at the database", "condition", entry.Condition, "pvname", entry.PVName)
	} else if err != nil {
		return "", fmt.Errorf("find condition %s: %w", entry.Condition, err)
	}

	result, err := r.db.Collection(entriesCollection).InsertOne(ctx, entryDocument(entry))
	if err != nil {
		return "", fmt.Errorf("insert entry %s: %w", entry.PVName, err)
	}

	id := idString(result.InsertedID)
	logger.InfoKV(ctx, "Inserted entry", "pvname", entry.PVName, "id", id)

	return id, nil
}

// SetGroupEnabled switches a group on or off.
func (r *Repository) SetGroupEnabled(ctx context.Context, name string, enabled bool) error {
	result, err := r.db.Collection(groupsCollection).UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$set": bson.M{"enabled": enabled}},
	)
	if err != nil {
		return fmt.Errorf("update group %s: %w", name, err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("group %s: %w", name, document.ErrNotFound)
	}

	return nil
}

// InitializeConditions drops the conditions collection and inserts conditions.
func (r *Repository) InitializeConditions(ctx context.Context, conditions []document.Condition) error {
	collection := r.db.Collection(conditionsCollection)
	if err := collection.Drop(ctx); err != nil {
		return fmt.Errorf("drop conditions: %w", err)
	}

	if len(conditions) == 0 {
		return nil
	}

	docs := make([]any, 0, len(conditions))
	for _, condition := range conditions {
		docs = append(docs, condition)
	}

	result, err := collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert conditions: %w", err)
	}

	logger.InfoKV(ctx, "Initialized conditions", "count", len(result.InsertedIDs))

	return nil
}

// Close disconnects the client.
func (r *Repository) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}

	return nil
}

// findAll decodes every document of a collection into out.
func (r *Repository) findAll(ctx context.Context, collection string, opts *options.FindOptions, out any) error {
	cursor, err := r.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}

	if err = cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}

	return nil
}

// findGroup looks a group up by name.
func (r *Repository) findGroup(ctx context.Context, name string) (document.Group, error) {
	var group document.Group

	err := r.db.Collection(groupsCollection).FindOne(ctx, bson.M{"name": name}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return group, fmt.Errorf("group %s: %w", name, document.ErrNotFound)
	}

	if err != nil {
		return group, fmt.Errorf("find group %s: %w", name, err)
	}

	return group, nil
}
