package logger

import (
	"go.uber.org/zap"
)

// NewNamed creates a named zap logger. Development environments get the
// human-readable console encoder; everything else gets production JSON.
func NewNamed(env, name string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if env == "development" {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.Named(name), nil
}
