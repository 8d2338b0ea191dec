package ports

import (
	"context"

	"goxtab/domain/core"
	"goxtab/models"
)

// RunRepository persists run history for the CLI and API surfaces.
// The engine itself never touches it.
type RunRepository interface {
	SaveRun(ctx context.Context, record *models.RunRecord) error
	GetRun(ctx context.Context, id core.RunID) (*models.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}
