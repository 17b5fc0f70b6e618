package db

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterBuilder helps build MongoDB filters fluently
type FilterBuilder struct {
	filter bson.M
}

// NewFilter creates a new FilterBuilder
func NewFilter() *FilterBuilder {
	return &FilterBuilder{filter: bson.M{}}
}

// Eq adds an equality condition
func (f *FilterBuilder) Eq(field string, value interface{}) *FilterBuilder {
	f.filter[field] = value
	return f
}

// EqIf adds an equality condition only when value is non-empty
func (f *FilterBuilder) EqIf(field string, value string) *FilterBuilder {
	if value != "" {
		f.filter[field] = value
	}
	return f
}

// Lt adds a less-than condition
func (f *FilterBuilder) Lt(field string, value interface{}) *FilterBuilder {
	f.filter[field] = bson.M{"$lt": value}
	return f
}

// ObjectID adds an ObjectID filter
func (f *FilterBuilder) ObjectID(field string, id primitive.ObjectID) *FilterBuilder {
	f.filter[field] = id
	return f
}

// Or combines multiple filters with OR
func (f *FilterBuilder) Or(filters ...bson.M) *FilterBuilder {
	if len(filters) > 0 {
		f.filter["$or"] = filters
	}
	return f
}

// Build returns the final bson.M filter
func (f *FilterBuilder) Build() bson.M {
	return f.filter
}
