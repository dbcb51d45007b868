package repositories

// RepositoryProvider aggregates the repository implementations the service
// container is wired with.
type RepositoryProvider struct {
	Settlement SettlementRepositoryFacade
	Contract   ContractRepository
}
