package db

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilterBuilder(t *testing.T) {
	id := primitive.NewObjectID()
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	f := NewFilter().
		ObjectID("_id", id).
		Eq("status", "pending").
		EqIf("adminId", "").
		EqIf("employeeId", "EMP7").
		Lt("createdAt", cutoff).
		Build()

	if f["_id"] != id || f["status"] != "pending" || f["employeeId"] != "EMP7" {
		t.Errorf("filter = %v", f)
	}
	if _, ok := f["adminId"]; ok {
		t.Error("EqIf with empty value must not add a condition")
	}
	lt, ok := f["createdAt"].(bson.M)
	if !ok || lt["$lt"] != cutoff {
		t.Errorf("createdAt = %v", f["createdAt"])
	}
}

func TestFilterOr(t *testing.T) {
	f := NewFilter().Or(bson.M{"a": 1}, bson.M{"b": 2}).Build()
	or, ok := f["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Errorf("$or = %v", f["$or"])
	}

	if empty := NewFilter().Or().Build(); len(empty) != 0 {
		t.Errorf("empty Or added %v", empty)
	}
}
