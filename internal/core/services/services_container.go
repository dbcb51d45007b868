package services

import (
	"github.com/shopspring/decimal"

	portsrepo "github.com/petroledger/settlement_app/internal/core/ports/repositories"
	portssvc "github.com/petroledger/settlement_app/internal/core/ports/services"
	"github.com/petroledger/settlement_app/internal/platform/config"
)

// NewServiceContainer wires the service layer from the repositories and
// configuration. Purchase and sales share the same engine implementation,
// each bound to its own contract kind.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher portssvc.SettlementEventPublisher) *portssvc.ServiceContainer {
	defaultRatio := decimal.NewFromFloat(cfg.DefaultTonBarrelRatio)

	container := &portssvc.ServiceContainer{}

	container.Purchase = NewPurchaseSettlementService(repos.Settlement, repos.Contract, publisher, defaultRatio)
	container.Sales = NewSalesSettlementService(repos.Settlement, repos.Contract, publisher, defaultRatio)

	container.PurchaseBulk = NewBulkService(container.Purchase, cfg.BulkWorkers)
	container.SalesBulk = NewBulkService(container.Sales, cfg.BulkWorkers)

	container.Export = NewExportService(repos.Settlement)

	return container
}
