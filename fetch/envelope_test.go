package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ID string `json:"id"`
}

func TestDecodePage(t *testing.T) {
	records, pg, err := decodePage[rec]([]byte(`{"data":[{"id":"a"},{"id":"b"}],"pagination":{"page":1,"totalPages":2}}`))
	require.NoError(t, err)
	assert.Equal(t, []rec{{"a"}, {"b"}}, records)
	assert.True(t, pg.more(1))
	assert.False(t, pg.more(2))

	_, _, err = decodePage[rec]([]byte(`{"items":[]}`))
	assert.ErrorIs(t, err, errMissingData)

	_, _, err = decodePage[rec]([]byte(`{"data":{"id":"a"}}`))
	assert.Error(t, err)

	_, _, err = decodePage[rec]([]byte(`not json`))
	assert.Error(t, err)
}

func TestPaginationMore(t *testing.T) {
	yes, no := true, false
	three := 3
	var nilPg *pagination
	assert.False(t, nilPg.more(1))
	assert.True(t, (&pagination{HasNextPage: &yes, TotalPages: &three}).more(5))
	assert.False(t, (&pagination{HasNextPage: &no, TotalPages: &three}).more(1))
	assert.True(t, (&pagination{TotalPages: &three}).more(2))
	assert.False(t, (&pagination{}).more(1))
}

func TestDecodeRecords(t *testing.T) {
	got, err := decodeRecords[rec]([]byte(` [{"id":"x"}]`))
	require.NoError(t, err)
	assert.Equal(t, []rec{{"x"}}, got)

	got, err = decodeRecords[rec]([]byte(`{"data":[]}`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = decodeRecords[rec]([]byte(`{"total":0}`))
	assert.ErrorIs(t, err, errMissingData)
}

func TestDecodeKeyed(t *testing.T) {
	got, err := decodeKeyed[rec]([]byte(`{"success":true,"data":{"Lance":[{"id":"a"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string][]rec{"Lance": {{"a"}}}, got)

	_, err = decodeKeyed[rec]([]byte(`[1,2]`))
	assert.Error(t, err)
}
