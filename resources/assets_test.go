package resources

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChimeIsValidWAV(t *testing.T) {
	data := Chime().Content()

	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(len(data)-44), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, uint32(chimeRate), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, ChimeName, Chime().Name())
}

func TestChimeIsCached(t *testing.T) {
	assert.Same(t, Chime(), Chime())
}

func TestIcon(t *testing.T) {
	running := string(Icon(true).Content())
	idle := string(Icon(false).Content())

	assert.True(t, strings.HasPrefix(running, "<svg"))
	assert.Contains(t, running, "#e4572e")
	assert.NotContains(t, idle, "#e4572e")
	assert.NotEqual(t, Icon(true).Name(), Icon(false).Name())
}
