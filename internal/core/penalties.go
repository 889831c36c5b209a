package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/internal/store"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// PenaltyFunc applies or reverses a moderation restriction for a user in a
// group. Adapters provide these as their ban/unban/mute/unmute primitives.
type PenaltyFunc func(ctx context.Context, userID, groupID string) error

// PenaltyScheduler persists bans and mutes and reverses them when their
// expiry passes. Short penalties also get a deferred in-process reversal;
// the periodic sweep is the durable fallback for reversals lost to a
// restart.
type PenaltyScheduler struct {
	store     store.Store
	threshold time.Duration
}

// NewPenaltyScheduler returns a scheduler persisting through st. A zero
// threshold uses the stock ManualUnpunishThreshold.
func NewPenaltyScheduler(st store.Store, threshold time.Duration) *PenaltyScheduler {
	if threshold == 0 {
		threshold = constants.ManualUnpunishThreshold
	}
	return &PenaltyScheduler{store: st, threshold: threshold}
}

// Apply executes the punishing primitive and records the penalty. When the
// penalty expires within the manual-revisit threshold, a deferred reversal
// fires at the deadline; either way the periodic sweep will catch it.
func (s *PenaltyScheduler) Apply(ctx context.Context, penalty *models.Penalty, punish, reverse PenaltyFunc) error {
	if err := punish(ctx, penalty.UserID, penalty.GroupID); err != nil {
		return err
	}

	if err := s.store.Save(ctx, penalty.Kind.Collection(), penalty.Key(), penalty.Document()); err != nil {
		return fmt.Errorf("failed to persist %s: %w", penalty.Kind, err)
	}

	if !penalty.Until.IsZero() {
		remaining := time.Until(penalty.Until)
		if remaining >= 0 && remaining <= s.threshold {
			kind, platform := penalty.Kind, penalty.Platform
			time.AfterFunc(remaining, func() {
				if err := s.CheckOld(context.Background(), kind, platform, reverse); err != nil {
					logger.WithError(err).WithField("kind", kind).Warn("deferred-penalty-reversal-failed")
				}
			})
		}
	}
	return nil
}

// Remove reverses a penalty immediately and deletes its record. A missing
// record is not an error; manual unpunish commands may target penalties
// that were never persisted.
func (s *PenaltyScheduler) Remove(ctx context.Context, penalty *models.Penalty, reverse PenaltyFunc) error {
	if err := reverse(ctx, penalty.UserID, penalty.GroupID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, penalty.Kind.Collection(), penalty.Key()); err != nil {
		return fmt.Errorf("failed to delete %s record: %w", penalty.Kind, err)
	}
	return nil
}

// CheckOld sweeps every persisted penalty of the given kind and platform,
// reversing those whose deadline has passed. Targets that already left are
// skipped and retried on the next sweep.
func (s *PenaltyScheduler) CheckOld(ctx context.Context, kind models.PenaltyKind, platform models.Platform, reverse PenaltyFunc) error {
	docs, err := s.store.Find(ctx, kind.Collection(), store.Document{"platform": platform.String()})
	if err != nil {
		return fmt.Errorf("failed to load %s records: %w", kind, err)
	}

	now := time.Now().UTC()
	for _, doc := range docs {
		penalty, err := models.PenaltyFromDocument(kind, doc)
		if err != nil {
			logger.WithError(err).WithField("kind", kind).Warn("skipping-corrupt-penalty-record")
			continue
		}
		if !penalty.Expired(now) {
			continue
		}

		if err := reverse(ctx, penalty.UserID, penalty.GroupID); err != nil {
			var disconnected *UserDisconnectedError
			if errors.As(err, &disconnected) {
				// Left the group before the reversal; the next sweep
				// retries once they're reachable again.
				continue
			}
			logger.WithError(err).WithFields(logrus.Fields{
				"kind":     kind,
				"user_id":  penalty.UserID,
				"group_id": penalty.GroupID,
			}).Error("penalty-reversal-failed")
			continue
		}

		if err := s.store.Delete(ctx, kind.Collection(), penalty.Key()); err != nil {
			logger.WithError(err).WithField("kind", kind).Error("failed-to-delete-reversed-penalty")
			continue
		}
		logger.WithFields(logrus.Fields{
			"kind":     kind,
			"user_id":  penalty.UserID,
			"group_id": penalty.GroupID,
		}).Info("expired-penalty-reversed")
	}
	return nil
}
