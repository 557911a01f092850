package logger

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/vsecure-io/vsecure/pkg/shared/config"
)

func TestDetermineLogLevel(t *testing.T) {
	t.Setenv("VSECURE_LOG_LEVEL", "")
	assert.Equal(t, hclog.Info, determineLogLevel(nil))
	assert.Equal(t, hclog.Debug, determineLogLevel(&config.Config{Logger: config.Logger{Level: "debug"}}))

	t.Setenv("VSECURE_LOG_LEVEL", "error")
	assert.Equal(t, hclog.Error, determineLogLevel(&config.Config{Logger: config.Logger{Level: "debug"}}))
}

func TestParseLogLevelUnknown(t *testing.T) {
	assert.Equal(t, hclog.Info, parseLogLevel("LOUD"))
}
