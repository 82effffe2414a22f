package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncDrillsCreated()
	IncImportRows(outcome string, n int)
	IncLinkChecks(result string)
	IncMatchEvents()
	IncMatchUndos()
	AddSessionScores(n int)
	IncLogins(method, result string)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	ObserveRequestDuration(route string, duration float64)
	SetStartupTime(duration float64)
}
