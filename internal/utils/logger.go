package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

type appNameHook struct {
	appName string
}

// Levels implements logrus.Hook interface.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook interface.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

func InitLogger(appName string) {
	Logger.SetOutput(os.Stdout)

	logLevelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", logLevelStr)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	Logger.AddHook(&appNameHook{appName})
}

// FluentHook ships every log entry to Fluent Bit under "<prefix>.<level>".
type FluentHook struct {
	client *fluent.Fluent
}

// NewFluentHook connects lazily; fluent-logger only fails on the first post
// when the collector is unreachable.
func NewFluentHook(host string, port int, tagPrefix string) (*FluentHook, error) {
	if tagPrefix == "" {
		return nil, fmt.Errorf("fluent tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost:    host,
		FluentPort:    port,
		TagPrefix:     tagPrefix,
		Async:         true,
		MarshalAsJSON: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fluent client: %w", err)
	}
	return &FluentHook{client: client}, nil
}

func (h *FluentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FluentHook) Fire(entry *logrus.Entry) error {
	record := make(map[string]any, len(entry.Data)+3)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			record[k] = err.Error()
			continue
		}
		record[k] = v
	}
	record["msg"] = entry.Message
	record["level"] = entry.Level.String()
	record["time"] = entry.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return h.client.PostWithTime(entry.Level.String(), entry.Time, record)
}

func (h *FluentHook) Close() error {
	return h.client.Close()
}

// AttachFluent wires a FluentHook into Logger when host is non-empty.
func AttachFluent(host, portStr, tagPrefix string) (*FluentHook, error) {
	if host == "" {
		return nil, nil
	}
	port := 24224
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid fluent port %q: %w", portStr, err)
		}
		port = p
	}
	hook, err := NewFluentHook(host, port, tagPrefix)
	if err != nil {
		return nil, err
	}
	Logger.AddHook(hook)
	return hook, nil
}
