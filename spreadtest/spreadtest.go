// Package spreadtest runs spread code off-chain against an in-memory store,
// with strict checks and every raw operation logged to the test.
package spreadtest

import (
	"testing"

	"github.com/andreyvit/spread"
)

// Env is a spread.Env bound to a writable transaction of a fresh MemStorage.
type Env struct {
	*spread.Env

	T       testing.TB
	Storage *spread.MemStorage
	Tx      spread.StorageTx
}

// New returns a harness with strict checks on and verbose logging routed to
// t.Logf. Zero opt is fine; Logf, Verbose and IsTesting are always set.
func New(t testing.TB, opt spread.Options) *Env {
	t.Helper()
	opt.Logf = t.Logf
	opt.Verbose = true
	opt.IsTesting = true

	e := &Env{
		T:       t,
		Storage: spread.NewMemStorage(),
	}
	e.Tx = must(e.Storage.BeginTx(true))
	e.Env = spread.NewEnv(txStore{e}, opt)
	t.Cleanup(func() {
		ensure(e.Tx.Rollback())
		ensure(e.Storage.Close())
	})
	return e
}

// Run resets the harness to an empty store and zero counters, then calls f.
func Run(t testing.TB, f func(env *Env)) {
	t.Helper()
	env := New(t, spread.Options{})
	env.Reset()
	f(env)
}

// Reset drops all data, including uncommitted writes, and zeroes the read
// and write counters. Cells bound to the Env keep working, now over an
// empty store; their caches are not touched.
func (e *Env) Reset() {
	ensure(e.Tx.Rollback())
	e.Storage.Reset()
	e.Tx = must(e.Storage.BeginTx(true))
	e.ResetCounters()
}

// Commit makes the writes so far durable and starts a new transaction, so
// that a following Reset can be told apart from a rollback.
func (e *Env) Commit() {
	ensure(e.Tx.Commit())
	e.Tx = must(e.Storage.BeginTx(true))
}

// Len returns the number of keys visible in the current transaction.
func (e *Env) Len() int {
	var n int
	ensure(e.Tx.ForEach(func(spread.Key, []byte) error {
		n++
		return nil
	}))
	return n
}

// Dump renders the current transaction's content.
func (e *Env) Dump() string {
	return spread.Dump(e.Tx, spread.DumpEntries|spread.DumpDecoded)
}

// DefaultKeys returns the well-known test keys: Alice through Frank are
// 32 bytes of 0x01 through 0x06.
func DefaultKeys() Keys {
	return Keys{
		Alice:   spread.RepeatKey(0x01),
		Bob:     spread.RepeatKey(0x02),
		Charlie: spread.RepeatKey(0x03),
		Django:  spread.RepeatKey(0x04),
		Eve:     spread.RepeatKey(0x05),
		Frank:   spread.RepeatKey(0x06),
	}
}

type Keys struct {
	Alice   spread.Key
	Bob     spread.Key
	Charlie spread.Key
	Django  spread.Key
	Eve     spread.Key
	Frank   spread.Key
}

// txStore follows Reset and Commit to whatever transaction is current.
type txStore struct {
	e *Env
}

func (s txStore) Get(key spread.Key) ([]byte, error) {
	return s.e.Tx.Get(key)
}

func (s txStore) Put(key spread.Key, value []byte) error {
	return s.e.Tx.Put(key, value)
}

func (s txStore) Delete(key spread.Key) error {
	return s.e.Tx.Delete(key)
}

func (s txStore) ForEach(f func(key spread.Key, value []byte) error) error {
	return s.e.Tx.ForEach(f)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
