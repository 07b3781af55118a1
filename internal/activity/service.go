package activity

import (
	"context"
	"fmt"

	"github.com/storefronthq/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefronthq/storefront-backend/pkg/errors"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Store is the persistence surface for activity entries.
type Store interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, query ListQuery) ([]Entry, error)
}

// Recorder is the write-side surface other services depend on. Recording is
// best-effort: a failed append never fails the triggering request.
type Recorder interface {
	Record(ctx context.Context, userID string, activityType enums.ActivityType, description string)
}

// Service is the full activity log surface; the admin listing sits next to
// the recorder.
type Service interface {
	Recorder
	List(ctx context.Context, query ListQuery) ([]Entry, error)
}

// ServiceParams groups dependencies for the activity service.
type ServiceParams struct {
	Store  Store
	Logger *logger.Logger
}

type service struct {
	store Store
	logg  *logger.Logger
}

// NewService builds the activity service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("activity store is required")
	}
	return &service{store: params.Store, logg: params.Logger}, nil
}

func (s *service) Record(ctx context.Context, userID string, activityType enums.ActivityType, description string) {
	if !activityType.IsValid() {
		activityType = enums.ActivityOther
	}
	entry := &Entry{UserID: userID, Type: activityType, Description: description}
	if err := s.store.Insert(ctx, entry); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":       userID,
			"activity_type": string(activityType),
		})
		s.logg.Warn(logCtx, "activity.record_failed")
	}
}

func (s *service) List(ctx context.Context, query ListQuery) ([]Entry, error) {
	if query.Type != "" && !query.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity type")
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = DefaultPageLimit
	}
	if query.Limit > MaxPageLimit {
		query.Limit = MaxPageLimit
	}

	entries, err := s.store.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity")
	}
	return entries, nil
}
