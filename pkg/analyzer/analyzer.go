// Package analyzer holds what every pyscan analyzer shares: the analyzer
// contract and progress tracking carried through context.
package analyzer

import (
	"context"

	"github.com/panbanda/pyscan/pkg/models"
)

// UnitAnalyzer is implemented by analyzers that work on in-memory source units.
// Callers supply the units; analyzers never touch the file system.
type UnitAnalyzer[T any] interface {
	// Analyze processes the units and returns the result. Failures on
	// individual units are part of the result, not an error.
	Analyze(ctx context.Context, units []models.SourceUnit) T
}
