package keyvaluedb

import "fmt"

// Reader interface for DB
type Reader interface {
	// Read reads the value for key stored in the DB. Returns false and
	// leaves value untouched when the key is not present.
	Read(key []byte, value any) (bool, error)
}

// Writer interface for DB
type Writer interface {
	// Write inserts the given value into the DB.
	Write(key []byte, value any) error
	// Delete removes the key from the key-value data store.
	Delete(key []byte) error
}

/*
KeyValueDB is the storage interface binding ledgers persist their state
into. Keys are opaque composite byte strings; stale epochs are never
enumerated so no iteration support is required.
*/
type KeyValueDB interface {
	Reader
	Writer
	Close() error
}

func CheckKey(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("key is empty")
	}
	return nil
}

func CheckKeyAndValue(key []byte, v any) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("value is nil")
	}
	return nil
}
