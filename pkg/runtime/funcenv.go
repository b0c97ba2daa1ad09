package runtime

import (
	"context"

	"github.com/opensvm/svm/pkg/storage"
)

// FuncEnv is the per-execution state threaded through a Wasm invocation
// via context.Context, the same pattern the teacher's ContractEngine uses
// to carry call-depth state into guest calls.
type FuncEnv struct {
	Store      *storage.VarStore
	Mode       ProtectedMode
	Logs       [][]byte
	Returndata []byte
}

type funcEnvKey struct{}

// WithFuncEnv attaches env to ctx for the duration of a guest invocation.
func WithFuncEnv(ctx context.Context, env *FuncEnv) context.Context {
	return context.WithValue(ctx, funcEnvKey{}, env)
}

// funcEnvFrom retrieves the FuncEnv attached to ctx. Panics if absent: a
// host import invoked outside a bound execution is a programmer error.
func funcEnvFrom(ctx context.Context) *FuncEnv {
	env, ok := ctx.Value(funcEnvKey{}).(*FuncEnv)
	if !ok {
		panic("runtime: host import invoked without a bound FuncEnv")
	}
	return env
}
