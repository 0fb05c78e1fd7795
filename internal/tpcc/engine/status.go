package engine

type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusInitializing Status = "INITIALIZING"
	StatusInitialized  Status = "INITIALIZED"
	StatusLoading      Status = "LOADING"
	StatusLoaded       Status = "LOADED"
	StatusRunning      Status = "RUNNING"
	StatusStopping     Status = "STOPPING"
	StatusStopped      Status = "STOPPED"
	StatusError        Status = "ERROR"
	StatusCancelled    Status = "CANCELLED"
	StatusShutdown     Status = "SHUTDOWN"
)
