package store

import (
	"errors"
	"fmt"
)

var (
	ErrStoreWrite = errors.New("store write failed")
	ErrStoreScan  = errors.New("store scan failed")
	ErrStoreFetch = errors.New("store fetch failed")

	errMisaligned = errors.New("mget reply length does not match request")
)

// WriteError is returned when a sample could not be encoded or persisted
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: key %q: %v", ErrStoreWrite, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error        { return e.Err }
func (e *WriteError) Is(target error) bool { return target == ErrStoreWrite }

// ScanError is returned when a cursor enumeration call fails
type ScanError struct {
	Pattern string
	Cursor  uint64
	Err     error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: pattern %q at cursor %d: %v", ErrStoreScan, e.Pattern, e.Cursor, e.Err)
}

func (e *ScanError) Unwrap() error        { return e.Err }
func (e *ScanError) Is(target error) bool { return target == ErrStoreScan }

// FetchError is returned when a bulk get call fails
type FetchError struct {
	Pattern string
	Keys    int // size of the failed batch
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: pattern %q batch of %d keys: %v", ErrStoreFetch, e.Pattern, e.Keys, e.Err)
}

func (e *FetchError) Unwrap() error        { return e.Err }
func (e *FetchError) Is(target error) bool { return target == ErrStoreFetch }
