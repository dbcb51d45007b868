package services

// ServiceContainer aggregates the service facades handed to the HTTP layer.
// Purchase and Sales share one implementation parameterized by contract kind.
type ServiceContainer struct {
	Purchase SettlementSvcFacade
	Sales    SettlementSvcFacade

	PurchaseBulk BulkSvcFacade
	SalesBulk    BulkSvcFacade

	Export SettlementExportSvc
}
