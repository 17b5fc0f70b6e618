package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a direct chat message in MongoDB
type Message struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	SenderID   string             `json:"senderId" bson:"senderId"`
	ReceiverID string             `json:"receiverId" bson:"receiverId"`
	Text       string             `json:"text" bson:"text"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}
