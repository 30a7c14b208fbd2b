package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeleteResult reports the outcome of a remove on an embedded collection.
type DeleteResult struct {
	Acknowledged bool `json:"acknowledged"`
	DeletedCount int  `json:"deletedCount"`
}

// embedded is implemented by every document stored inside a User.
type embedded interface {
	Key() primitive.ObjectID
}

// NewID generates an id for an embedded document.
func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// Now returns the current time at the precision documents are stored with.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// indexOf returns the position of the item with the given hex id, or -1.
// Malformed ids match nothing.
func indexOf[T embedded](items []T, id string) int {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1
	}
	return slices.IndexFunc(items, func(item T) bool { return item.Key() == oid })
}

// find returns a pointer into items for the given id, or nil.
func find[T embedded](items []T, id string) *T {
	if i := indexOf(items, id); i >= 0 {
		return &items[i]
	}
	return nil
}

func prepend[T any](items []T, item T) []T {
	return append([]T{item}, items...)
}

// remove deletes the item with the given id. An empty or unknown id is a
// no-op reported as unacknowledged.
func remove[T embedded](items *[]T, id string) DeleteResult {
	if id == "" {
		return DeleteResult{}
	}
	i := indexOf(*items, id)
	if i < 0 {
		return DeleteResult{}
	}
	*items = slices.Delete(*items, i, i+1)
	return DeleteResult{Acknowledged: true, DeletedCount: 1}
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
