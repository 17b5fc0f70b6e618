package service

import (
	"Workpulse/internal/db"
	"Workpulse/internal/model"
	"Workpulse/internal/repo"
	"context"
)

type MessageService interface {
	Conversation(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error)
}

type messageService struct {
	messageRepo repo.MessageRepository
}

func NewMessageService(messageRepo repo.MessageRepository) MessageService {
	return &messageService{messageRepo: messageRepo}
}

func (s *messageService) Conversation(ctx context.Context, userA, userB string, page int64) (*db.PaginatedResult[model.Message], error) {
	return s.messageRepo.Conversation(ctx, userA, userB, page)
}
