// Package logx provides the process-wide logger with explicit
// initialization and teardown that cmd/omnipeak owns. One constructed
// *logrus.Logger is threaded explicitly into every component; no package
// below the CLI shell mutates global logging state.
package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing to out (os.Stderr in production, a test
// buffer in tests) at the given verbosity.
func New(out io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

// NewDefault builds the standard stderr logger cmd/omnipeak uses outside
// of tests.
func NewDefault(verbose bool) *logrus.Logger {
	return New(os.Stderr, verbose)
}

// NewFile builds a logger writing to path, returning the logger and an
// io.Closer the caller must close once the run finishes.
func NewFile(path string, verbose bool) (*logrus.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, verbose), f, nil
}
