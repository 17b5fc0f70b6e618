package repo

import (
	"Workpulse/internal/db"
	"Workpulse/internal/event"
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
	ErrInvalidRequestID    = errors.New("invalid monitoring request ID")
	ErrRequestNotFound     = errors.New("no pending monitoring request with that ID")
	ErrInvalidStatus       = errors.New("status must be accepted or declined")
	ErrMissingParticipants = errors.New("adminId and employeeId are required")
	ErrEmptyFilter         = errors.New("filter needs adminId or employeeId")
)

// Field names in the monitoring request collection
const (
	fieldID          = "_id"
	fieldAdminID     = "adminId"
	fieldEmployeeID  = "employeeId"
	fieldStatus      = "status"
	fieldCreatedAt   = "createdAt"
	fieldRespondedAt = "respondedAt"
	fieldAllowScreen = "allowScreen"
	fieldAllowAudio  = "allowAudio"
	fieldAllowWebcam = "allowWebcam"
)

type MonitoringRequestRepository interface {
	Create(ctx context.Context, req *model.MonitoringRequest) (*model.MonitoringRequest, error)
	Respond(ctx context.Context, id string, status string, flags model.AllowFlags) (*model.MonitoringRequest, error)
	FindPending(ctx context.Context, filter model.RequestFilter) ([]model.MonitoringRequest, error)
	FindForUser(ctx context.Context, filter model.RequestFilter) ([]model.MonitoringRequest, error)
	ExpirePending(ctx context.Context, cutoff time.Time) ([]model.MonitoringRequest, error)
}

type monitoringRequestRepository struct {
	mongoRepo *db.Repository[model.MonitoringRequest]
	logger    *zap.Logger
	now       func() time.Time
}

func NewMonitoringRequestRepository(con *mongo.Database, collection string, logger *zap.Logger) MonitoringRequestRepository {
	return &monitoringRequestRepository{
		mongoRepo: db.NewRepository[model.MonitoringRequest](con, collection),
		logger:    logger,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------
// Create - always inserts a new pending record. Not retried: a write that
// failed after reaching the server must not be duplicated.
// -----------------------------------------------------------------------------
func (r *monitoringRequestRepository) Create(ctx context.Context, req *model.MonitoringRequest) (*model.MonitoringRequest, error) {
	if req == nil || req.AdminID == "" || req.EmployeeID == "" {
		return nil, ErrMissingParticipants
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	record := *req
	record.ID = primitive.NewObjectID()
	record.Status = event.StatusPending
	record.CreatedAt = r.now().UTC()
	record.RespondedAt = nil
	if record.Type == "" {
		record.Type = event.TypeScreen
	}

	if _, err := r.mongoRepo.Create(ctx, record); err != nil {
		r.logger.Error("failed to insert monitoring request",
			zap.String("admin_id", record.AdminID),
			zap.String("employee_id", record.EmployeeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert monitoring request failed: %w", err)
	}

	r.logger.Info("monitoring request created",
		zap.String("request_id", record.ID.Hex()),
		zap.String("admin_id", record.AdminID),
		zap.String("employee_id", record.EmployeeID),
		zap.String("type", record.Type),
	)
	return &record, nil
}

// -----------------------------------------------------------------------------
// Respond - pending -> accepted|declined, atomically with the allow flags.
// Only a pending record matches, so terminal records are never touched.
// -----------------------------------------------------------------------------
func (r *monitoringRequestRepository) Respond(ctx context.Context, id string, status string, flags model.AllowFlags) (*model.MonitoringRequest, error) {
	if status != event.StatusAccepted && status != event.StatusDeclined {
		return nil, ErrInvalidStatus
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidRequestID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID(fieldID, objectID).
		Eq(fieldStatus, event.StatusPending).
		Build()

	update := bson.M{
		fieldStatus:      status,
		fieldRespondedAt: r.now().UTC(),
	}
	if flags.Screen != nil {
		update[fieldAllowScreen] = *flags.Screen
	}
	if flags.Audio != nil {
		update[fieldAllowAudio] = *flags.Audio
	}
	if flags.Webcam != nil {
		update[fieldAllowWebcam] = *flags.Webcam
	}

	updated, err := r.mongoRepo.FindOneAndSet(ctx, filter, update)
	if err != nil {
		r.logger.Error("failed to respond to monitoring request",
			zap.String("request_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil, fmt.Errorf("respond to monitoring request failed: %w", err)
	}
	if updated == nil {
		r.logger.Debug("no pending monitoring request to respond to",
			zap.String("request_id", id),
		)
		return nil, ErrRequestNotFound
	}

	r.logger.Info("monitoring request answered",
		zap.String("request_id", id),
		zap.String("status", status),
	)
	return updated, nil
}

// FindPending returns pending requests for either side, oldest first
func (r *monitoringRequestRepository) FindPending(ctx context.Context, filter model.RequestFilter) ([]model.MonitoringRequest, error) {
	filter.Status = event.StatusPending
	return r.find(ctx, filter)
}

// FindForUser returns requests of any status unless filter.Status is set
func (r *monitoringRequestRepository) FindForUser(ctx context.Context, filter model.RequestFilter) ([]model.MonitoringRequest, error) {
	return r.find(ctx, filter)
}

func (r *monitoringRequestRepository) find(ctx context.Context, filter model.RequestFilter) ([]model.MonitoringRequest, error) {
	if filter.IsEmpty() {
		return nil, ErrEmptyFilter
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	query := db.NewFilter().
		EqIf(fieldAdminID, filter.AdminID).
		EqIf(fieldEmployeeID, filter.EmployeeID).
		EqIf(fieldStatus, filter.Status).
		Build()

	results, err := withReadRetry(ctx, func(ctx context.Context) ([]model.MonitoringRequest, error) {
		return r.mongoRepo.FindAll(ctx, query, fieldCreatedAt)
	})
	if err != nil {
		r.logger.Error("failed to query monitoring requests",
			zap.String("admin_id", filter.AdminID),
			zap.String("employee_id", filter.EmployeeID),
			zap.String("status", filter.Status),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find monitoring requests failed: %w", err)
	}

	return results, nil
}

// -----------------------------------------------------------------------------
// ExpirePending - declines pending requests created before cutoff. Each record
// is flipped with its own pending-guarded update, so a request answered in the
// meantime is left alone and not reported.
// -----------------------------------------------------------------------------
func (r *monitoringRequestRepository) ExpirePending(ctx context.Context, cutoff time.Time) ([]model.MonitoringRequest, error) {
	readCtx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	query := db.NewFilter().
		Eq(fieldStatus, event.StatusPending).
		Lt(fieldCreatedAt, cutoff.UTC()).
		Build()

	stale, err := withReadRetry(readCtx, func(ctx context.Context) ([]model.MonitoringRequest, error) {
		return r.mongoRepo.FindAll(ctx, query, fieldCreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("find stale monitoring requests failed: %w", err)
	}

	expired := make([]model.MonitoringRequest, 0, len(stale))
	for _, req := range stale {
		updated, err := r.Respond(ctx, req.ID.Hex(), event.StatusDeclined, model.AllowFlags{})
		if err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				continue
			}
			return expired, err
		}
		expired = append(expired, *updated)
	}

	if len(expired) > 0 {
		r.logger.Info("expired pending monitoring requests",
			zap.Int("count", len(expired)),
			zap.Time("cutoff", cutoff),
		)
	}
	return expired, nil
}
