package session

import (
	"context"

	"github.com/felixgeelhaar/codecraft/internal/domain"
)

// SessionService defines the session operations used by the daemon handlers
type SessionService interface {
	Create(ctx context.Context, req CreateRequest) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	UpdateCode(ctx context.Context, id, code string) (*Session, error)

	RunTests(ctx context.Context, id string, req RunRequest) (*domain.Run, error)
	GetRun(ctx context.Context, sessionID, runID string) (*domain.Run, error)
	WaitRun(ctx context.Context, sessionID, runID string) (*domain.Run, error)
	CancelRun(ctx context.Context, sessionID, runID string) error
}

// Ensure Service implements SessionService
var _ SessionService = (*Service)(nil)
