package logger

import (
	"github.com/sirupsen/logrus"
	"go.elastic.co/ecslogrus"
)

// Build Build a new ECS formatted logger, at info level
func Build() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&ecslogrus.Formatter{})
	return log
}

// BuildWithLevel Same as Build. An unknown level falls back to info, and is reported
func BuildWithLevel(level string) *logrus.Logger {
	log := Build()
	if level == "" {
		return log
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using %s", level, log.GetLevel())
		return log
	}
	log.SetLevel(lvl)
	return log
}
