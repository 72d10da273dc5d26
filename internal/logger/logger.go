package logger

import "go.uber.org/zap"

// New returns a production logger unless the app runs in a local or dev
// environment, where human-readable output is more useful.
func New(env string) (*zap.Logger, error) {
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
