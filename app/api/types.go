package api

import (
	"github.com/nkosyan/dealradar/app/catalog"
	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/tasks"
)

// Handler bundles the dependencies of the HTTP endpoints.
type Handler struct {
	reader               *catalog.Reader
	dealRepo             database.DealRepository
	runRepo              database.RunRepository
	orchestrator         *tasks.Orchestrator
	defaultMinSavingsPct float64
}
