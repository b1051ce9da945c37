package flow

var (
	SessionsGauge    = sessionsGauge
	ProcessedCounter = processedCounter
)
