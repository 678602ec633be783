package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// scanPage is one scripted SCAN reply
type scanPage struct {
	keys []string
	next uint64
	err  error
}

type scanCall struct {
	cursor  uint64
	match   string
	count   int64
	keyType string
}

// fakeClient replays scripted SCAN pages and serves MGET/SET from a map
type fakeClient struct {
	mu sync.Mutex

	pages     []scanPage
	scanCalls []scanCall

	data      map[string]string
	ttls      map[string]time.Duration
	mgetCalls [][]string
	setCalls  int

	mgetErr   error
	setErr    error
	shortMGet bool
	pingErr   error
}

func newFakeClient(pages ...scanPage) *fakeClient {
	return &fakeClient{
		pages: pages,
		data:  make(map[string]string),
		ttls:  make(map[string]time.Duration),
	}
}

func (f *fakeClient) Scan(_ context.Context, cursor uint64, match string, count int64, keyType string) ([]string, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scanCalls = append(f.scanCalls, scanCall{cursor: cursor, match: match, count: count, keyType: keyType})
	if len(f.scanCalls) > len(f.pages) {
		return nil, 0, fmt.Errorf("unexpected scan call %d", len(f.scanCalls))
	}
	p := f.pages[len(f.scanCalls)-1]
	return p.keys, p.next, p.err
}

func (f *fakeClient) MGet(_ context.Context, keys ...string) ([]Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mgetCalls = append(f.mgetCalls, append([]string(nil), keys...))
	if f.mgetErr != nil {
		return nil, f.mgetErr
	}

	values := make([]Value, 0, len(keys))
	for _, k := range keys {
		raw, ok := f.data[k]
		values = append(values, Value{Raw: raw, Found: ok})
	}
	if f.shortMGet {
		values = values[:len(values)-1]
	}
	return values, nil
}

func (f *fakeClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }
func (f *fakeClient) Close() error               { return nil }

// expire simulates the store reclaiming key after its TTL
func (f *fakeClient) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.ttls, key)
}

type recordingObserver struct {
	mu    sync.Mutex
	ops   map[string]int
	fails int
	pages int
	keys  int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{ops: make(map[string]int)}
}

func (o *recordingObserver) ObserveStoreOp(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops[op]++
	if err != nil {
		o.fails++
	}
}

func (o *recordingObserver) ObserveScanPage(keys int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages++
	o.keys += keys
}
