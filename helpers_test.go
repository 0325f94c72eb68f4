package spread

import (
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type (
	pair struct {
		A LazyCell[uint8]
		B LazyCell[uint8]
	}

	// ghost claims no slots but writes anyway, overlapping its sibling.
	ghost struct{}

	overlapping struct {
		G ghost
		A LazyCell[uint8]
	}

	registry struct {
		Owner LazyCell[Key]
		Names Mapping[string, Key]
		Log   Vec[string]
	}
)

func (p *pair) Footprint() uint64 { return FootprintOf(&p.A, &p.B) }
func (p *pair) PullSpread(env *Env, ptr *KeyPtr) { PullFields(env, ptr, &p.A, &p.B) }
func (p *pair) PushSpread(env *Env, ptr *KeyPtr) { PushFields(env, ptr, &p.A, &p.B) }
func (p *pair) ClearSpread(env *Env, ptr *KeyPtr) { ClearFields(env, ptr, &p.A, &p.B) }

func (g *ghost) Footprint() uint64 { return 0 }
func (g *ghost) PullSpread(env *Env, ptr *KeyPtr) { ptr.Next(0) }
func (g *ghost) PushSpread(env *Env, ptr *KeyPtr) { env.WriteRaw(ptr.Next(0), x("c0")) }
func (g *ghost) ClearSpread(env *Env, ptr *KeyPtr) { env.ClearRaw(ptr.Next(0)) }

func (o *overlapping) Footprint() uint64 { return FootprintOf(&o.G, &o.A) }
func (o *overlapping) PullSpread(env *Env, ptr *KeyPtr) { PullFields(env, ptr, &o.G, &o.A) }
func (o *overlapping) PushSpread(env *Env, ptr *KeyPtr) { PushFields(env, ptr, &o.G, &o.A) }
func (o *overlapping) ClearSpread(env *Env, ptr *KeyPtr) { ClearFields(env, ptr, &o.G, &o.A) }

func (r *registry) fields() []Spread {
	return []Spread{&r.Owner, &r.Names, &r.Log}
}
func (r *registry) Footprint() uint64 { return FootprintOf(r.fields()...) }
func (r *registry) PullSpread(env *Env, ptr *KeyPtr) { PullFields(env, ptr, r.fields()...) }
func (r *registry) PushSpread(env *Env, ptr *KeyPtr) { PushFields(env, ptr, r.fields()...) }
func (r *registry) ClearSpread(env *Env, ptr *KeyPtr) { ClearFields(env, ptr, r.fields()...) }

func newRegistry(owner Key) registry {
	return registry{
		Owner: NewCell(owner),
		Names: NewMapping[string, Key](),
		Log:   NewVec[string](),
	}
}

func setup(t testing.TB) (*Env, StorageTx) {
	return setupWith(t, Options{})
}

func setupWith(t testing.TB, opt Options) (*Env, StorageTx) {
	t.Helper()
	storage := NewMemStorage()
	tx := must(storage.BeginTx(true))
	t.Cleanup(func() {
		tx.Rollback()
		storage.Close()
	})
	opt.Logf = t.Logf
	opt.Verbose = true
	opt.IsTesting = true
	return NewEnv(tx, opt), tx
}

func keyCount(t testing.TB, store ScanStore) int {
	t.Helper()
	var n int
	err := store.ForEach(func(Key, []byte) error {
		n++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func readsWrites(t testing.TB, env *Env, reads, writes uint64) {
	t.Helper()
	r, w := env.ReadsWrites()
	if r != reads || w != writes {
		t.Errorf("** got %d reads / %d writes, wanted %d / %d", r, w, reads, writes)
	}
}

func assertPanics(t testing.TB, f func()) (p any) {
	t.Helper()
	defer func() {
		p = recover()
		if p == nil {
			t.Fatalf("** did not panic")
		}
	}()
	f()
	return nil
}

func assertPanicsWith(t testing.TB, target error, f func()) {
	t.Helper()
	p := assertPanics(t, f)
	err, ok := p.(error)
	if !ok {
		t.Fatalf("** panicked with %T %v, wanted error", p, p)
	}
	if !errors.Is(err, target) {
		t.Fatalf("** panicked with %v, wanted %v", err, target)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isnil[T any, P ~*T](t testing.TB, a P) {
	if a != nil {
		t.Helper()
		t.Errorf("** got &%v, wanted nil", *a)
	}
}

func isnonnil[T any](t testing.TB, a *T) {
	if a == nil {
		t.Helper()
		t.Errorf("** got nil %T, wanted non-nil", a)
	}
}

func x(data string) []byte {
	data = strings.ReplaceAll(data, " ", "")
	return must(hex.DecodeString(data))
}
