package logging

const (
	infoLogLevel    = "INFO"
	warningLogLevel = "WARNING"
	errorLogLevel   = "ERROR"

	NotStarted = "not-started"
	Running    = "running"
	Failed     = "failed"
	Completed  = "completed"
)
