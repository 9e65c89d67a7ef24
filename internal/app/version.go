package app

const ServiceName = "tutoring-service"

// Overridden at build time, e.g.
//
//	go build -ldflags="-X 'tutoring-service/internal/app.Version=1.4.0' -X 'tutoring-service/internal/app.GitCommit=$(git rev-parse --short HEAD)'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
