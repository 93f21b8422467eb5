package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewZerologLoggerDev(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	log := New("test_component")
	assert.NotNil(t, log)

	// These must not panic in console mode.
	log.Debugf("debug %s", "message")
	log.Debugw("debug with fields", map[string]any{"stage": "exact", "objective": 123.4})
	log.Infof("info %d", 42)
	log.Warnf("warn")
	log.Errorf("error: %v", assert.AnError)
}

func TestNewZerologLoggerProd(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	log := New("test_component")
	assert.NotNil(t, log)
	log.Infof("structured output")
}

func TestNewZerologLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	log := New("test_component")
	assert.NotNil(t, log)
	log.Debugf("visible at debug level")
	log.Debugw("visible at debug level", map[string]any{"k": "v"})
}

func TestNopLogger(t *testing.T) {
	var log Logger = NopLogger{}
	log.Debugf("ignored")
	log.Debugw("ignored", nil)
	log.Infof("ignored")
	log.Warnf("ignored")
	log.Errorf("ignored")
}
