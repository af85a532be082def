package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// rescaleTables multiplies every present point of each known table: one
// bulk read, an in-memory transform, one bulk write. Absent tables are
// logged and left out of the result.
func rescaleTables(ctx context.Context, doc ports.Document, sx, sy float64, logger ports.Logger) ([]domain.TableSummary, error) {
	var tables []domain.TableSummary
	for _, name := range domain.PointTables {
		points, err := doc.ReadPoints(ctx, name)
		if isMissing(err) {
			logger.Info("point table not found; skipped", ports.String("table", name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		n := domain.RescalePoints(points, sx, sy)
		if err := doc.WritePoints(ctx, name, points); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}

		t := domain.TableSummary{Name: name, Total: len(points), Rescaled: n}
		logger.Info("points rescaled",
			ports.String("table", name),
			ports.Int("rescaled", t.Rescaled),
			ports.Int("total", t.Total),
		)
		tables = append(tables, t)
	}
	return tables, nil
}
