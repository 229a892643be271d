package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbIterator "github.com/syndtr/goleveldb/leveldb/iterator"
	leveldbOpt "github.com/syndtr/goleveldb/leveldb/opt"
	leveldbStorage "github.com/syndtr/goleveldb/leveldb/storage"
	leveldbUtil "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
)

// Schemes accepted by Open
const (
	SchemeFile   = "file"
	SchemeMemory = "memory"
)

var (
	// ErrRecordNotFound is returned by Get when the key is absent
	ErrRecordNotFound = errors.New("record not found")
	// ErrLocked is returned by Open when another process holds the database
	ErrLocked = errors.New("database is locked by another process")
)

// LevelDBCore is the subset shared by *leveldb.DB and *leveldb.Transaction
type LevelDBCore interface {
	Has([]byte, *leveldbOpt.ReadOptions) (bool, error)
	Get([]byte, *leveldbOpt.ReadOptions) ([]byte, error)
	NewIterator(*leveldbUtil.Range, *leveldbOpt.ReadOptions) leveldbIterator.Iterator
	Put([]byte, []byte, *leveldbOpt.WriteOptions) error
	Delete([]byte, *leveldbOpt.WriteOptions) error
}

// LevelDBBackend stores JSON values under string keys. A backend returned by
// OpenTransaction routes every call through the transaction.
type LevelDBBackend struct {
	DB *leveldb.DB

	Core LevelDBCore
}

func setLevelDBCoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return domain.PersistenceError(op, err)
}

// Open opens a file-backed database at path, or an in-memory one.
func Open(scheme, path string) (*LevelDBBackend, error) {
	var (
		db  *leveldb.DB
		err error
	)

	switch scheme {
	case SchemeFile, "":
		if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, setLevelDBCoreError("create data dir", err)
		}
		if db, err = leveldb.OpenFile(path, nil); err != nil {
			if lockHeld(err) {
				err = fmt.Errorf("%w: %s", ErrLocked, path)
			}
			return nil, setLevelDBCoreError("open", err)
		}
	case SchemeMemory:
		if db, err = leveldb.Open(leveldbStorage.NewMemStorage(), nil); err != nil {
			return nil, setLevelDBCoreError("open", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage scheme %q (expected file or memory)", scheme)
	}

	return &LevelDBBackend{DB: db, Core: db}, nil
}

// NewMemory opens an empty in-memory database.
func NewMemory() (*LevelDBBackend, error) {
	return Open(SchemeMemory, "")
}

func (st *LevelDBBackend) Close() error {
	return st.DB.Close()
}

// OpenTransaction starts a transaction. Only one transaction can be open at a
// time; others block until it is committed or discarded, which serializes
// every read-modify-write made through Update.
func (st *LevelDBBackend) OpenTransaction() (*LevelDBBackend, error) {
	if _, ok := st.Core.(*leveldb.Transaction); ok {
		return nil, errors.New("this is already *leveldb.Transaction")
	}

	transaction, err := st.DB.OpenTransaction()
	if err != nil {
		return nil, setLevelDBCoreError("open transaction", err)
	}

	return &LevelDBBackend{
		DB:   st.DB,
		Core: transaction,
	}, nil
}

func (st *LevelDBBackend) Discard() error {
	ts, ok := st.Core.(*leveldb.Transaction)
	if !ok {
		return setLevelDBCoreError("discard", errors.New("this is not *leveldb.Transaction"))
	}

	ts.Discard()
	return nil
}

func (st *LevelDBBackend) Commit() error {
	ts, ok := st.Core.(*leveldb.Transaction)
	if !ok {
		return setLevelDBCoreError("commit", errors.New("this is not *leveldb.Transaction"))
	}

	return setLevelDBCoreError("commit", ts.Commit())
}

// Update runs fn inside a transaction, committing when fn returns nil and
// discarding otherwise. fn's error is returned unchanged.
func (st *LevelDBBackend) Update(fn func(tx *LevelDBBackend) error) error {
	tx, err := st.OpenTransaction()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Discard()
		return err
	}
	return tx.Commit()
}

func (st *LevelDBBackend) Has(k string) (bool, error) {
	ok, err := st.Core.Has([]byte(k), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}
		return false, setLevelDBCoreError("has", err)
	}

	return ok, nil
}

// Get decodes the value at k into v.
func (st *LevelDBBackend) Get(k string, v any) error {
	b, err := st.Core.Get([]byte(k), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return ErrRecordNotFound
		}
		return setLevelDBCoreError("get", err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return setLevelDBCoreError("decode "+k, err)
	}
	return nil
}

// Put encodes v and stores it at k, replacing any previous value.
func (st *LevelDBBackend) Put(k string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return setLevelDBCoreError("encode "+k, err)
	}
	return setLevelDBCoreError("put", st.Core.Put([]byte(k), encoded, nil))
}

// New stores v at k, failing if k already exists.
func (st *LevelDBBackend) New(k string, v any) error {
	exists, err := st.Has(k)
	if err != nil {
		return err
	}
	if exists {
		return domain.AlreadyExists("record %s", k)
	}
	return st.Put(k, v)
}

func (st *LevelDBBackend) Remove(k string) error {
	return setLevelDBCoreError("delete", st.Core.Delete([]byte(k), nil))
}

// Walk calls fn with the raw value of every key starting with prefix, in key
// order. Returning a non-nil error from fn stops the walk.
func (st *LevelDBBackend) Walk(prefix string, fn func(key string, value []byte) error) error {
	iter := st.Core.NewIterator(leveldbUtil.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		// the iterator reuses its buffers between calls
		value := append([]byte(nil), iter.Value()...)
		if err := fn(string(iter.Key()), value); err != nil {
			return err
		}
	}
	return setLevelDBCoreError("iterate", iter.Error())
}
