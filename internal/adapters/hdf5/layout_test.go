package hdf5

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempPath(t *testing.T) {
	assert.Equal(t, "video0/.video.slprescale", tempPath("video0/video"))
	assert.Equal(t, ".videos_json.slprescale", tempPath("videos_json"))
}

func TestPackSplitFixed(t *testing.T) {
	records := []string{`{"a":1}`, `{}`, `{"backend":{"shape":[1,2,3,4]}}`}
	buf, size := packFixed(records)
	assert.Equal(t, len(records[2]), size)
	assert.Len(t, buf, size*3)

	got, err := splitFixed(buf, size, 3)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestPackFixed_Empty(t *testing.T) {
	buf, size := packFixed(nil)
	assert.Equal(t, 1, size)
	assert.Empty(t, buf)
}

func TestSplitFixed_ShortBuffer(t *testing.T) {
	_, err := splitFixed([]byte("abc"), 2, 2)
	assert.Error(t, err)
	_, err = splitFixed(nil, 0, 0)
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	data, lens := flatten([][]byte{{1, 2}, {}, {3}})
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, []uint64{2, 0, 1}, lens)
}

func TestSplitRows(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6}
	rows := splitRows(buf, 2, 3)
	assert.Equal(t, [][]byte{{1, 2, 3}, {4, 5, 6}}, rows)

	buf[0] = 9
	assert.Equal(t, byte(1), rows[0][0])
}

func TestRawAttr_MarshalsAsText(t *testing.T) {
	out, err := json.Marshal(map[string]interface{}{"v": rawAttr{data: []byte{1, 2}, dims: []uint64{2}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"<2 bytes, dims [2]>"}`, string(out))
}
