package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMatching_EmptyKeyspace(t *testing.T) {
	client := newFakeClient(scanPage{keys: nil, next: 0})
	reader := NewReader(client, Options{})

	res, err := reader.FetchMatching(context.Background(), "requests|*")
	require.NoError(t, err)

	assert.Empty(t, res.Keys)
	assert.Empty(t, res.Values)
	assert.NotNil(t, res.Keys)
	assert.NotNil(t, res.Values)
	assert.Len(t, client.scanCalls, 1, "first reply with cursor 0 must end the walk")
	assert.Empty(t, client.mgetCalls, "no keys means no MGET")
}

func TestFetchMatching_EmptyPagesThenDone(t *testing.T) {
	client := newFakeClient(
		scanPage{keys: nil, next: 12},
		scanPage{keys: []string{}, next: 0},
	)

	res, err := NewReader(client, Options{}).FetchMatching(context.Background(), "x|*")
	require.NoError(t, err)
	assert.Zero(t, res.Len())
	assert.Len(t, client.scanCalls, 2)
	assert.Empty(t, client.mgetCalls)
}

func TestFetchMatching_MultiplePages(t *testing.T) {
	client := newFakeClient(
		scanPage{keys: []string{"k1", "k2"}, next: 17},
		scanPage{keys: []string{}, next: 42},
		scanPage{keys: []string{"k3"}, next: 5},
		scanPage{keys: []string{"k4"}, next: 0},
	)
	client.data["k1"] = `1`
	client.data["k2"] = `{"duration":2}`
	client.data["k4"] = `4`
	// k3 expired between SCAN and MGET

	obs := newRecordingObserver()
	reader := NewReader(client, Options{Observer: obs})

	res, err := reader.FetchMatchingWith(context.Background(), "requests|date-2024-01-31|*", 25, 1000)
	require.NoError(t, err)

	assert.Equal(t, []string{"k1", "k2", "k3", "k4"}, res.Keys)
	require.Len(t, res.Values, 4)
	assert.Equal(t, Value{Raw: "1", Found: true}, res.Values[0])
	assert.Equal(t, Value{Raw: `{"duration":2}`, Found: true}, res.Values[1])
	assert.False(t, res.Values[2].Found, "missing key keeps its slot")
	assert.Equal(t, Value{Raw: "4", Found: true}, res.Values[3])

	require.Len(t, client.scanCalls, 4)
	cursors := []uint64{}
	for _, c := range client.scanCalls {
		cursors = append(cursors, c.cursor)
		assert.Equal(t, "requests|date-2024-01-31|*", c.match)
		assert.Equal(t, int64(25), c.count)
		assert.Equal(t, StringType, c.keyType)
	}
	assert.Equal(t, []uint64{0, 17, 42, 5}, cursors)

	assert.Equal(t, 4, obs.ops["scan"])
	assert.Equal(t, 1, obs.ops["mget"])
	assert.Equal(t, 4, obs.pages)
	assert.Equal(t, 4, obs.keys)
}

func TestFetchMatching_MGetBatches(t *testing.T) {
	client := newFakeClient(scanPage{keys: []string{"a", "b", "c", "d", "e"}, next: 0})
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		client.data[k] = `"` + k + `"`
	}

	res, err := NewReader(client, Options{MGetBatchSize: 2}).FetchMatching(context.Background(), "*")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, client.mgetCalls)
	require.Len(t, res.Values, 5)
	for i, k := range res.Keys {
		assert.Equal(t, `"`+k+`"`, res.Values[i].Raw)
	}
}

func TestFetchMatching_DefaultBatchSizes(t *testing.T) {
	client := newFakeClient(scanPage{keys: []string{"a"}, next: 0})

	_, err := NewReader(client, Options{}).FetchMatchingWith(context.Background(), "*", 0, -1)
	require.NoError(t, err)

	require.Len(t, client.scanCalls, 1)
	assert.Equal(t, DefaultScanBatchSize, client.scanCalls[0].count)
	assert.Len(t, client.mgetCalls, 1)
}

func TestFetchMatching_ScanError(t *testing.T) {
	cause := errors.New("connection reset")
	client := newFakeClient(
		scanPage{keys: []string{"a"}, next: 9},
		scanPage{err: cause},
	)

	res, err := NewReader(client, Options{}).FetchMatching(context.Background(), "p*")
	require.Error(t, err)
	assert.Zero(t, res.Len(), "no partial result")

	assert.ErrorIs(t, err, ErrStoreScan)
	assert.ErrorIs(t, err, cause)
	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, uint64(9), scanErr.Cursor)
	assert.Equal(t, "p*", scanErr.Pattern)
	assert.Empty(t, client.mgetCalls)
}

func TestFetchMatching_FetchError(t *testing.T) {
	cause := errors.New("timeout")
	client := newFakeClient(scanPage{keys: []string{"a", "b", "c"}, next: 0})
	client.mgetErr = cause

	_, err := NewReader(client, Options{MGetBatchSize: 2}).FetchMatching(context.Background(), "*")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrStoreFetch)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrStoreScan)
	assert.Len(t, client.mgetCalls, 1, "first failure aborts")
}

func TestFetchMatching_MisalignedReply(t *testing.T) {
	client := newFakeClient(scanPage{keys: []string{"a", "b"}, next: 0})
	client.shortMGet = true

	_, err := NewReader(client, Options{}).FetchMatching(context.Background(), "*")
	assert.ErrorIs(t, err, ErrStoreFetch)
}
