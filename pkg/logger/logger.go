// Package logger centralises log construction so every component logs
// through the same formatter, level and output.
package logger

import (
	"io"
	"os"

	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Config controls the process-wide logger. Zero value logs text to stdout
// at info level.
type Config struct {
	Level  string
	JSON   bool
	Path   string // optional log file, rotated via lumberjack
	MaxMB  int
	Backup int
}

var base = logrus.New()

func init() {
	base.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)
}

// Init (re)configures the base logger. Call once at startup before any
// GetLogger calls that care about level/output.
func Init(cfg Config) error {
	if cfg.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		base.SetLevel(lvl)
	}

	var out io.Writer = os.Stdout
	if cfg.Path != "" {
		maxMB := cfg.MaxMB
		if maxMB <= 0 {
			maxMB = 50
		}
		backups := cfg.Backup
		if backups <= 0 {
			backups = 3
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    maxMB,
			MaxBackups: backups,
			Compress:   true,
		})
	}
	base.SetOutput(out)

	return nil
}

// GetLogger returns a logger prefixed with the given component name.
func GetLogger(name string) *logrus.Entry {
	return base.WithField("prefix", name)
}
