// Package logging initializes the process-wide logger the way
// massifs/enumeratepaths_test.go and mmrtesting/testcontext.go do for
// their test harnesses (logger.New(level) followed by
// logger.Sugar.WithServiceName for a scoped logger), adapted here for
// the CLI entry point instead of a test harness.
package logging

import "github.com/datatrails/go-datatrails-common/logger"

// Init installs the global logger at the given level ("DEBUG", "INFO",
// "NOOP", ...) and returns a service-scoped logger for depverify.
func Init(level string) logger.Logger {
	if level == "" {
		level = "INFO"
	}
	logger.New(level)
	return logger.Sugar.WithServiceName("depverify")
}
