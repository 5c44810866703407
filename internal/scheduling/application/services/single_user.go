package services

import (
	"context"
	"log/slog"

	sdomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/google/uuid"
)

// SingleUserLister satisfies UserLister for the single-operator deployment
// mode this CLI runs in (one ORBITA_USER_ID per process, mirroring
// cmd/orbita/main.go's cliApp.SetCurrentUserID). A multi-tenant server
// would replace this with a repository scan over registered users.
type SingleUserLister struct {
	userID uuid.UUID
}

// NewSingleUserLister wraps the process's configured user id.
func NewSingleUserLister(userID uuid.UUID) *SingleUserLister {
	return &SingleUserLister{userID: userID}
}

func (s *SingleUserLister) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return []uuid.UUID{s.userID}, nil
}

// LogHeartbeatNotifier surfaces a raised heartbeat through structured
// logging, the same sink the rest of the worker uses for operational
// signals such as the outbox processor.
type LogHeartbeatNotifier struct {
	logger *slog.Logger
}

// NewLogHeartbeatNotifier creates a LogHeartbeatNotifier.
func NewLogHeartbeatNotifier(logger *slog.Logger) *LogHeartbeatNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHeartbeatNotifier{logger: logger}
}

func (n *LogHeartbeatNotifier) Notify(ctx context.Context, userID uuid.UUID, result sdomain.HeartbeatResult) error {
	n.logger.Warn("task heartbeat raised",
		"user_id", userID,
		"task_id", result.TaskID,
		"severity", result.Severity,
		"score", result.Score,
		"slack_days", result.Slack,
	)
	return nil
}
