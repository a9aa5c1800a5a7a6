package utils

import (
    "io"
    "os"

    "github.com/sirupsen/logrus"
)

// NewLogger builds the application logger.  Development gets a colored
// text formatter with full timestamps; every other environment gets JSON
// lines for log shipping.  Unknown level names fall back to info.
func NewLogger(env, level string) *logrus.Logger {
    return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) *logrus.Logger {
    l := logrus.New()
    l.SetOutput(out)
    if env == "dev" || env == "" {
        l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    } else {
        l.SetFormatter(&logrus.JSONFormatter{})
    }
    lvl, err := logrus.ParseLevel(level)
    if err != nil {
        lvl = logrus.InfoLevel
    }
    l.SetLevel(lvl)
    return l
}
