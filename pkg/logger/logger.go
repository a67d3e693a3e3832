package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
)

// Logger 封装logrus，统一服务内日志出口
type Logger struct {
	entry  *logrus.Logger
	closer io.Closer
}

var (
	globalMu     sync.RWMutex
	globalLogger = newDefault()
)

func newDefault() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{entry: l}
}

// NewLogger 根据配置创建日志器
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.Log.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logger := &Logger{entry: l}
	switch cfg.Log.Output {
	case "", "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Log.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.SetOutput(os.Stdout)
			l.Warnf("failed to open log file, fallback to stdout path=%s error=%v", cfg.Log.Output, err)
		} else {
			l.SetOutput(f)
			logger.closer = f
		}
	}

	return logger
}

// SetGlobalLogger 替换全局日志器
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Close 关闭日志输出文件
func (l *Logger) Close() {
	if l.closer != nil {
		_ = l.closer.Close()
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Debug(msg)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Info(msg)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Warn(msg)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Error(msg)
}

func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.withFields(fields).Fatal(msg)
}

func (l *Logger) withFields(fields []map[string]interface{}) *logrus.Entry {
	entry := logrus.NewEntry(l.entry)
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

// 包级方法走全局日志器

func Debugf(format string, args ...interface{}) { global().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { global().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { global().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { global().Errorf(format, args...) }

func Debug(msg string, fields ...map[string]interface{}) { global().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { global().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { global().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { global().Error(msg, fields...) }
func Fatal(msg string, fields ...map[string]interface{}) { global().Fatal(msg, fields...) }
