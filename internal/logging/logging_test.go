package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultIsNop(t *testing.T) {
	assert.NotNil(t, L())
	assert.False(t, L().Core().Enabled(zap.ErrorLevel))
}

func TestSetAndReset(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	Set(zap.New(core))
	defer Set(nil)

	L().Named("pass").Warn("blur disabled", zap.String("reason", "shader"))
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "pass", logs.All()[0].LoggerName)

	Set(nil)
	assert.False(t, L().Core().Enabled(zap.ErrorLevel))
}
