package cron

import (
	"context"
	"fmt"

	"github.com/istmo-energy/portal-backend/pkg/logger"
)

type tokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenPurgeJobParams configure the reschedule token purge job.
type TokenPurgeJobParams struct {
	Logger     *logger.Logger
	Reschedule tokenPurger
}

// NewTokenPurgeJob removes expired reschedule tokens.
func NewTokenPurgeJob(params TokenPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reschedule == nil {
		return nil, fmt.Errorf("reschedule service required")
	}
	return &tokenPurgeJob{
		logg:       params.Logger,
		reschedule: params.Reschedule,
	}, nil
}

type tokenPurgeJob struct {
	logg       *logger.Logger
	reschedule tokenPurger
}

func (j *tokenPurgeJob) Name() string { return "reschedule-token-purge" }

func (j *tokenPurgeJob) Run(ctx context.Context) error {
	deleted, err := j.reschedule.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("token purge: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "rows_deleted", deleted)
	j.logg.Info(logCtx, "reschedule token purge complete")
	return nil
}
