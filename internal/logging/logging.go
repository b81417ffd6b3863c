// Package logging builds the top-level *logrus.Logger from a
// config.Config and implements the run-id log file rotation convention:
// renaming the previous log file aside and symlinking the configured name
// back to the active one.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// levels maps the command line's level vocabulary onto logrus's, with
// NONE silencing the logger entirely and NORMAL matching logrus's
// default InfoLevel.
var levels = map[string]logrus.Level{
	"TRACE":    logrus.TraceLevel,
	"DEBUG":    logrus.DebugLevel,
	"WARNING":  logrus.WarnLevel,
	"NORMAL":   logrus.InfoLevel,
	"ERROR":    logrus.ErrorLevel,
	"CRITICAL": logrus.FatalLevel,
	"NONE":     logrus.PanicLevel,
}

// ParseLevel resolves one of the command line's named levels.
func ParseLevel(name string) (logrus.Level, error) {
	lvl, ok := levels[strings.ToUpper(name)]
	if !ok {
		return 0, errors.Errorf("logging: unknown log level %q", name)
	}
	return lvl, nil
}

// New builds a logger writing to logFile (or stderr when logFile is
// empty) at the given level. When runID is non-empty and logFile names an
// existing regular file, that file is rotated aside first via Rotate.
func New(logFile, level, runID string) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if logFile == "" {
		logger.SetOutput(os.Stderr)
		return logger, nil
	}

	if runID != "" {
		if err := Rotate(logFile); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return nil, errors.Wrap(err, "logging: opening log file")
	}
	logger.SetOutput(f)
	return logger, nil
}

// Rotate implements the persisted log file convention triggered by
// --run-id: when path already names a regular file, it is renamed to
// include a YYYYMMDD.HHMMSS.PID suffix and path is left as a symlink
// pointing at the renamed file, which stays the active file that New
// appends to through the symlink. When path is already a symlink, or is
// not a regular file, nothing is renamed.
func Rotate(path string) error {
	fi, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "logging: stat log file")
	}
	if fi.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	if !fi.Mode().IsRegular() {
		return nil
	}

	rotated := fmt.Sprintf("%s.%s.%d", path, stamp(), os.Getpid())
	if err := os.Rename(path, rotated); err != nil {
		return errors.Wrap(err, "logging: rotating log file")
	}
	if err := os.Symlink(filepath.Base(rotated), path); err != nil {
		return errors.Wrap(err, "logging: symlinking rotated log file")
	}
	return nil
}

// stamp is split out so tests can't accidentally depend on wall-clock
// formatting beyond this one call site.
func stamp() string {
	return time.Now().Format("20060102.150405")
}
