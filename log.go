package await

import (
	"github.com/sirupsen/logrus"
)

// logger traces context switches and Awaitable transitions at debug level and
// reports contract violations at error level. The default instance stays
// quiet below warn.
var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Logger returns the logger used by the runtime.
func Logger() *logrus.Logger {
	return logger
}

// SetLogger replaces the logger used by the runtime. Passing nil restores the
// default.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newLogger()
	}
	logger = l
}
