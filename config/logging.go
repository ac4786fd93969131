package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// currentWriter forwards to whatever LogWriter is at write time, so loggers built
// before InitLogging still reach the log file.
type currentWriter struct{}

func (currentWriter) Write(p []byte) (int, error) { return LogWriter.Write(p) }

// Logger returns a standard logger that tags each line with [component].
func Logger(component string) *log.Logger {
	return log.New(currentWriter{}, "["+component+"] ", log.LstdFlags|log.Lmsgprefix)
}

// InitLogging tees the standard logger to stdout and path. When the file cannot be
// opened logging stays on stdout and the returned file is nil.
func InitLogging(path string) *os.File {
	log.SetOutput(currentWriter{})
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
		return nil
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		return nil
	}

	LogWriter = io.MultiWriter(os.Stdout, logFile)
	return logFile
}
