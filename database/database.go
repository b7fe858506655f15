package database

// Dao records runs of the pipeline
type Dao interface {
	EnsureSchema() error

	CreateRun(execution string, pipeline string, volume string, command string) (int64, error)
	FinishRun(id int64, status string, exitCode int64, runError string) error
	GetRunById(id int64) (*Run, error)
	GetAllRuns() ([]Run, error)

	KillDao()
}
