package spread

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

type Options struct {
	Logf    func(format string, args ...any)
	Verbose bool

	// IsTesting enables strict checks: a key written or cleared twice within
	// a single push or clear is reported as a key collision.
	IsTesting bool

	// Encoding of packed values, MsgPack by default.
	Encoding encodingMethod

	// KeepOnRelease turns LazyCell.Release into a no-op, leaving storage
	// owned by released cells intact.
	KeepOnRelease bool
}

// Env routes all storage access of cells and containers to a Store.
//
// Env is not safe for concurrent use.
type Env struct {
	store         Store
	enc           encodingMethod
	logf          func(format string, args ...any)
	verbose       bool
	strict        bool
	keepOnRelease bool

	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64

	passDepth int
	touched   map[Key]string
}

func NewEnv(store Store, opt Options) *Env {
	if store == nil {
		panic("spread: nil store")
	}
	logf := opt.Logf
	if logf == nil {
		logf = func(format string, args ...any) {}
	}
	return &Env{
		store:         store,
		enc:           opt.Encoding,
		logf:          logf,
		verbose:       opt.Verbose,
		strict:        opt.IsTesting,
		keepOnRelease: opt.KeepOnRelease,
	}
}

func (env *Env) Store() Store {
	return env.store
}

func (env *Env) IsStrict() bool {
	return env.strict
}

// ReadsWrites returns the number of store reads and writes (including
// clears) performed through this Env.
func (env *Env) ReadsWrites() (reads, writes uint64) {
	return env.ReadCount.Load(), env.WriteCount.Load()
}

func (env *Env) ResetCounters() {
	env.ReadCount.Store(0)
	env.WriteCount.Store(0)
}

// ReadRaw returns the bytes stored at key, or nil.
func (env *Env) ReadRaw(key Key) []byte {
	env.ReadCount.Add(1)
	v, err := env.store.Get(key)
	if err != nil {
		panic(&StoreError{"read", key, err})
	}
	if env.verbose {
		if v == nil {
			env.logf("spread: READ.NOTFOUND %v", key)
		} else {
			env.logf("spread: READ %v => %s", key, hexstr(v))
		}
	}
	return v
}

func (env *Env) WriteRaw(key Key, value []byte) {
	env.track(key, "write")
	env.WriteCount.Add(1)
	if env.verbose {
		env.logf("spread: WRITE %v => %s", key, hexstr(value))
	}
	if err := env.store.Put(key, value); err != nil {
		panic(&StoreError{"write", key, err})
	}
}

func (env *Env) ClearRaw(key Key) {
	env.track(key, "clear")
	env.WriteCount.Add(1)
	if env.verbose {
		env.logf("spread: CLEAR %v", key)
	}
	if err := env.store.Delete(key); err != nil {
		panic(&StoreError{"clear", key, err})
	}
}

// encode returns the packed representation of *v.
func (env *Env) encode(v any) []byte {
	return env.enc.EncodeValue(nil, v)
}

func (env *Env) decode(key Key, raw []byte, ptr any) {
	err := env.enc.DecodeValue(raw, ptr)
	if err != nil {
		panic(keyErrf(key, err, "decoding"))
	}
}

// beginPass starts (or nests into) a push or clear pass. In strict mode,
// keys touched during the outermost pass are recorded to catch overlapping
// allocations.
func (env *Env) beginPass() {
	env.passDepth++
	if env.passDepth == 1 && env.strict {
		env.touched = make(map[Key]string)
	}
}

func (env *Env) endPass() {
	env.passDepth--
	if env.passDepth < 0 {
		panic("spread: unbalanced endPass")
	}
	if env.passDepth == 0 {
		env.touched = nil
	}
}

func (env *Env) track(key Key, op string) {
	if env.touched == nil {
		return
	}
	if prev, found := env.touched[key]; found {
		panic(keyErrf(key, ErrKeyCollision, "%s after %s in the same pass", op, prev))
	}
	env.touched[key] = op
}

// Try runs f and returns the backing store error that aborted it, if any.
// The error is returned unchanged, so errors.Is works against the store's
// own sentinel errors. Any other panic (including decoding failures and
// key collisions) propagates.
func (env *Env) Try(f func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if se, ok := p.(*StoreError); ok {
				if env.verbose {
					env.logf("spread: %s aborted: %v", se.Op, se.Err)
				}
				err = se.Err
				return
			}
			panic(p)
		}
	}()
	f()
	return nil
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

// SafelyCall runs f and converts any panic into an error carrying the stack.
// Unlike Try it also captures decoding failures and collisions, which is
// handy for tools that inspect possibly corrupted stores.
func (env *Env) SafelyCall(f func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = fmt.Errorf("%w\n\n%s", e, debug.Stack())
				return
			}
			err = panicked{p, string(debug.Stack())}
		}
	}()
	f()
	return nil
}
