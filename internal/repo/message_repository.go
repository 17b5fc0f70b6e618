package repo

import (
	"Workpulse/internal/db"
	"Workpulse/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage = errors.New("invalid message: sender, receiver and text are required")
)

const (
	messagePageSize = 30
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
	now       func() time.Time
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error)
	Conversation(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error)
}

func NewMessageRepository(con *mongo.Database, collection string, logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: db.NewRepository[model.Message](con, collection),
		logger:    logger,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage - the id is assigned before the first attempt, so a retry
// after an ambiguous failure hits a duplicate key instead of a second copy.
// -----------------------------------------------------------------------------
func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil || msg.SenderID == "" || msg.ReceiverID == "" || msg.Text == "" {
		return nil, ErrInvalidMessage
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	record := *msg
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = m.now().UTC()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		_, err := m.mongoRepo.Create(ctx, record)
		if err == nil {
			m.logger.Debug("message inserted",
				zap.String("message_id", record.ID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return &record, nil
		}

		// an earlier attempt landed
		if attempt > 0 && mongo.IsDuplicateKeyError(err) {
			return &record, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("sender_id", record.SenderID),
	)
	return nil, fmt.Errorf("insert message failed: %w", lastErr)
}

// Conversation pages through the messages exchanged between two users, oldest first
func (m *messageRepository) Conversation(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidMessage
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"senderId": userA, "receiverId": userB},
		bson.M{"senderId": userB, "receiverId": userA},
	).Build()

	result, err := withReadRetry(ctx, func(ctx context.Context) (*db.PaginatedResult[model.Message], error) {
		return m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: messagePageSize,
			SortBy:   "createdAt",
		})
	})
	if err != nil {
		m.logger.Error("failed to read conversation",
			zap.String("user_a", userA),
			zap.String("user_b", userB),
			zap.Error(err),
		)
		return nil, fmt.Errorf("read conversation failed: %w", err)
	}
	return result, nil
}
