package ports

import (
	"context"

	"goxtab/domain/tabs"
)

// ReportWriter renders a finished run for human consumption. The engine
// never writes files itself; a writer consumes the result exactly once.
type ReportWriter interface {
	Write(ctx context.Context, result *tabs.RunResult, path string) error
}
