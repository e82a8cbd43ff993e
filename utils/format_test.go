package utils

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtils_DecorateText(t *testing.T) {
	assert.Equal(t, SuccessColor+"done"+DefaultColor, DecorateText("done", SuccessMessage))
	assert.Equal(t, ErrorColor+"fail"+DefaultColor, DecorateText("fail", ErrorMessage))
	assert.Equal(t, "raw", DecorateText("raw", MessageType(42)))
}

func TestUtils_IsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestUtils_FormatTime(t *testing.T) {
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 5.00s", FormatTime(2*time.Minute+5*time.Second))
	assert.Equal(t, "1h 2m 3.00s", FormatTime(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "1h 0m 3.00s", FormatTime(time.Hour+3*time.Second))
	assert.Equal(t, "1d 1h 0m 0.00s", FormatTime(25*time.Hour))
}
