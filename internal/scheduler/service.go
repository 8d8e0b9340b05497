package scheduler

import (
	"context"
	"fmt"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Jobs is the work the scheduler drives
type Jobs interface {
	SaveSnapshot(ctx context.Context) error
	RunCrisisCheck() (*models.Alert, error)
	RunReport() error
}

// Service handles scheduling of background jobs
type Service struct {
	config *config.Config
	jobs   Jobs
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, jobs Jobs) *Service {
	return &Service{
		config: cfg,
		jobs:   jobs,
		cron:   cron.New(cron.WithSeconds()),
	}
}

func reportCron(schedule string) string {
	switch schedule {
	case "daily":
		// Run daily at 9 AM UTC
		return "0 0 9 * * *"
	default:
		// Run weekly on Monday at 9 AM UTC
		return "0 0 9 * * MON"
	}
}

// Start registers the jobs and begins running them
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.config.SnapshotInterval), func() {
		if err := s.jobs.SaveSnapshot(context.Background()); err != nil {
			logrus.Errorf("Scheduled snapshot failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshots: %w", err)
	}

	_, err = s.cron.AddFunc(fmt.Sprintf("@every %s", s.config.CrisisCheckInterval), func() {
		logrus.Debug("Starting crisis check")
		if _, err := s.jobs.RunCrisisCheck(); err != nil {
			logrus.Errorf("Crisis check failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule crisis checks: %w", err)
	}

	if s.config.NotificationsEnabled() {
		_, err = s.cron.AddFunc(reportCron(s.config.ReportSchedule), func() {
			logrus.Info("Starting scheduled digest")
			if err := s.jobs.RunReport(); err != nil {
				logrus.Errorf("Scheduled digest failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule digest: %w", err)
		}
	}

	s.cron.Start()
	logrus.WithFields(logrus.Fields{
		"snapshot_interval": s.config.SnapshotInterval.String(),
		"crisis_interval":   s.config.CrisisCheckInterval.String(),
		"report_schedule":   s.config.ReportSchedule,
		"jobs":              len(s.cron.Entries()),
	}).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
