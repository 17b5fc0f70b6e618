package repo

import (
	"Workpulse/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

func TestInsertMessage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stores message with id and timestamp", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		r := NewMessageRepository(mt.DB, "messages", zap.NewNop())

		got, err := r.InsertMessage(context.Background(), &model.Message{
			SenderID:   "admin-1",
			ReceiverID: "EMP7",
			Text:       "hello",
		})
		if err != nil {
			t.Fatalf("InsertMessage: %v", err)
		}
		if got.ID.IsZero() || got.CreatedAt.IsZero() {
			t.Errorf("message = %+v", got)
		}
	})

	mt.Run("rejects empty text", func(mt *mtest.T) {
		r := NewMessageRepository(mt.DB, "messages", zap.NewNop())
		_, err := r.InsertMessage(context.Background(), &model.Message{SenderID: "a", ReceiverID: "b"})
		if !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("err = %v, want ErrInvalidMessage", err)
		}
	})
}

func TestConversation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pages messages between two users", func(mt *mtest.T) {
		at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		msg := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "senderId", Value: "admin-1"},
			{Key: "receiverId", Value: "EMP7"},
			{Key: "text", Value: "hello"},
			{Key: "createdAt", Value: at},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "db.messages", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
			mtest.CreateCursorResponse(0, "db.messages", mtest.FirstBatch, msg),
		)
		r := NewMessageRepository(mt.DB, "messages", zap.NewNop())

		page, err := r.Conversation(context.Background(), "admin-1", "EMP7", 1)
		if err != nil {
			t.Fatalf("Conversation: %v", err)
		}
		if len(page.Data) != 1 || page.Data[0].Text != "hello" {
			t.Errorf("data = %+v", page.Data)
		}
	})
}
