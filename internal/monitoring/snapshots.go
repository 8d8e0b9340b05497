package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/storage"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/store"
	"github.com/sirupsen/logrus"
)

const snapshotPrefix = "snapshots/"

// SaveSnapshot persists the store and prunes old snapshots. It is a no-op
// when no storage backend is configured.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}

	now := s.now().UTC()
	snap := s.store.Snapshot(now)

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("%smentions-%s.json", snapshotPrefix, now.Format("2006-01-02-15-04-05.000"))
	if err := s.storage.Store(ctx, name, data); err != nil {
		s.mu.Lock()
		s.metrics.ErrorCount++
		s.mu.Unlock()
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.mu.Lock()
	s.metrics.LastSnapshot = &now
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"snapshot":       name,
		"social":         len(snap.Social),
		"web":            len(snap.Web),
		"conversational": len(snap.Conversational),
	}).Info("Saved mention snapshot")

	return s.pruneSnapshots(ctx)
}

func (s *Service) pruneSnapshots(ctx context.Context) error {
	names, err := s.storage.List(ctx, snapshotPrefix)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	retain := s.config.SnapshotRetain
	if retain <= 0 || len(names) <= retain {
		return nil
	}

	// Names sort chronologically, oldest first
	for _, name := range names[:len(names)-retain] {
		if err := s.storage.Delete(ctx, name); err != nil {
			logrus.WithError(err).WithField("snapshot", name).Warn("Failed to prune snapshot")
		}
	}
	return nil
}

// RestoreLatest loads the newest snapshot into the store. It reports false
// when storage is disabled or holds no snapshot.
func (s *Service) RestoreLatest(ctx context.Context) (bool, error) {
	if s.storage == nil {
		return false, nil
	}

	names, err := s.storage.List(ctx, snapshotPrefix)
	if err != nil {
		return false, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(names) == 0 {
		return false, nil
	}

	latest := names[len(names)-1]
	data, err := s.storage.Retrieve(ctx, latest)
	if storage.IsNotFound(err) {
		logrus.WithField("snapshot", latest).Warn("Snapshot disappeared before it could be restored")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to retrieve snapshot %s: %w", latest, err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false, fmt.Errorf("failed to decode snapshot %s: %w", latest, err)
	}
	s.store.Restore(snap)

	logrus.WithFields(logrus.Fields{
		"snapshot": latest,
		"age":      time.Since(snap.TakenAt).Round(time.Second).String(),
	}).Info("Restored mention snapshot")

	return true, nil
}
