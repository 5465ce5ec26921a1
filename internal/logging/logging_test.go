package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"insightpro/internal/logging"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "logfmt", "warn")

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, "caller=")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "json", "debug")

	level.Debug(logger).Log("msg", "hello", "product_id", 7)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 7, entry["product_id"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, logging.OrNop(nil))
	assert.NoError(t, logging.OrNop(nil).Log("msg", "discarded"))
}
