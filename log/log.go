package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel maps our LogLevel enum onto logrus's. SILENT has no logrus
// counterpart, so it maps below ErrorLevel (to PanicLevel, the quietest
// level logrus has) rather than onto it — otherwise SILENT would log
// everything ERROR does, instead of nothing.
func SetLevel(level LogLevel) {
	switch level {
	case DEBUG:
		logger.SetLevel(logrus.DebugLevel)
	case INFO:
		logger.SetLevel(logrus.InfoLevel)
	case WARNING:
		logger.SetLevel(logrus.WarnLevel)
	case ERROR:
		logger.SetLevel(logrus.ErrorLevel)
	case SILENT:
		logger.SetLevel(logrus.PanicLevel)
	}
}

// Fields is a type alias so callers don't need to import logrus directly.
type Fields = logrus.Fields

func Debugln(msg string, fields Fields) { logger.WithFields(fields).Debug(msg) }
func Infoln(msg string, fields Fields)  { logger.WithFields(fields).Info(msg) }
func Warnln(msg string, fields Fields)  { logger.WithFields(fields).Warn(msg) }
func Errorln(msg string, fields Fields) { logger.WithFields(fields).Error(msg) }
