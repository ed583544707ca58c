package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oshokin/pv-alarm/internal/repository/document"
)

// objectID stores hex identities as ObjectID so migrated and new rows compare equal.
func objectID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}

	return id
}

// idString renders an inserted identity.
func idString(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// groupDocument builds the stored form of a group.
func groupDocument(group document.Group) bson.D {
	doc := bson.D{
		{Key: "name", Value: group.Name},
		{Key: "enabled", Value: group.Enabled},
	}

	if group.ID != "" {
		doc = append(bson.D{{Key: "_id", Value: objectID(group.ID)}}, doc...)
	}

	if group.Description != "" {
		doc = append(doc, bson.E{Key: "description", Value: group.Description})
	}

	return doc
}

// entryDocument builds the stored form of an entry.
func entryDocument(entry document.Entry) bson.D {
	doc := bson.D{
		{Key: "pvname", Value: entry.PVName},
		{Key: "emails", Value: entry.Emails},
		{Key: "condition", Value: entry.Condition},
		{Key: "alarm_values", Value: entry.AlarmValues},
		{Key: "unit", Value: entry.Unit},
		{Key: "warning_message", Value: entry.WarningMessage},
		{Key: "subject", Value: entry.Subject},
		{Key: "email_timeout", Value: entry.EmailTimeout},
		{Key: "group", Value: entry.Group},
	}

	if entry.ID != "" {
		doc = append(bson.D{{Key: "_id", Value: objectID(entry.ID)}}, doc...)
	}

	if entry.GroupID != "" {
		doc = append(doc, bson.E{Key: "group_id", Value: objectID(entry.GroupID)})
	}

	return doc
}
