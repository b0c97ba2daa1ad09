package runtime

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// hostNamespace is the reserved namespace under which the platform's own
// host functions are exported; per SPEC_FULL.md §6 a host process may
// register exactly one additional namespace, which must not be this one.
const hostNamespace = "svm"

func requireFullAccess(env *FuncEnv, op string) {
	if env.Mode == AccessDenied {
		panic(fmt.Sprintf("runtime: host import %q denied under AccessDenied protected mode", op))
	}
}

func store160(ctx context.Context, mod api.Module, memPtr, varID uint32) {
	env := funcEnvFrom(ctx)
	requireFullAccess(env, "store160")
	_, width := env.Store.Layout().Resolve(varID)
	if width != 20 {
		panic(fmt.Sprintf("runtime: store160 on var %d with width %d (expected 20)", varID, width))
	}
	data, ok := mod.Memory().Read(memPtr, 20)
	if !ok {
		panic("runtime: store160: guest memory read out of bounds")
	}
	if err := env.Store.Write(varID, data); err != nil {
		panic(fmt.Sprintf("runtime: store160: %v", err))
	}
}

func load160(ctx context.Context, mod api.Module, varID, memPtr uint32) {
	env := funcEnvFrom(ctx)
	requireFullAccess(env, "load160")
	_, width := env.Store.Layout().Resolve(varID)
	if width != 20 {
		panic(fmt.Sprintf("runtime: load160 on var %d with width %d (expected 20)", varID, width))
	}
	data, err := env.Store.Read(varID)
	if err != nil {
		panic(fmt.Sprintf("runtime: load160: %v", err))
	}
	if !mod.Memory().Write(memPtr, data) {
		panic("runtime: load160: guest memory write out of bounds")
	}
}

func get32(ctx context.Context, varID uint32) uint32 {
	env := funcEnvFrom(ctx)
	requireFullAccess(env, "get32")
	_, width := env.Store.Layout().Resolve(varID)
	if width > 4 {
		panic(fmt.Sprintf("runtime: get32 on var %d with width %d (expected <= 4)", varID, width))
	}
	data, err := env.Store.Read(varID)
	if err != nil {
		panic(fmt.Sprintf("runtime: get32: %v", err))
	}
	var buf [4]byte
	copy(buf[:], data)
	return binary.LittleEndian.Uint32(buf[:])
}

func set32(ctx context.Context, varID, value uint32) {
	env := funcEnvFrom(ctx)
	requireFullAccess(env, "set32")
	_, width := env.Store.Layout().Resolve(varID)
	if width > 4 {
		panic(fmt.Sprintf("runtime: set32 on var %d with width %d (expected <= 4)", varID, width))
	}
	var full [4]byte
	binary.LittleEndian.PutUint32(full[:], value)
	if err := env.Store.Write(varID, full[:width]); err != nil {
		panic(fmt.Sprintf("runtime: set32: %v", err))
	}
}

func get64(ctx context.Context, varID uint32) uint64 {
	env := funcEnvFrom(ctx)
	requireFullAccess(env, "get64")
	_, width := env.Store.Layout().Resolve(varID)
	if width > 8 {
		panic(fmt.Sprintf("runtime: get64 on var %d with width %d (expected <= 8)", varID, width))
	}
	data, err := env.Store.Read(varID)
	if err != nil {
		panic(fmt.Sprintf("runtime: get64: %v", err))
	}
	var buf [8]byte
	copy(buf[:], data)
	return binary.LittleEndian.Uint64(buf[:])
}

func set64(ctx context.Context, varID uint32, value uint64) {
	env := funcEnvFrom(ctx)
	requireFullAccess(env, "set64")
	_, width := env.Store.Layout().Resolve(varID)
	if width > 8 {
		panic(fmt.Sprintf("runtime: set64 on var %d with width %d (expected <= 8)", varID, width))
	}
	var full [8]byte
	binary.LittleEndian.PutUint64(full[:], value)
	if err := env.Store.Write(varID, full[:width]); err != nil {
		panic(fmt.Sprintf("runtime: set64: %v", err))
	}
}

func hostLog(ctx context.Context, mod api.Module, ptr, length uint32) {
	env := funcEnvFrom(ctx)
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		panic("runtime: log: guest memory read out of bounds")
	}
	entry := make([]byte, len(data))
	copy(entry, data)
	env.Logs = append(env.Logs, entry)
}

func setReturndata(ctx context.Context, mod api.Module, ptr, length uint32) {
	env := funcEnvFrom(ctx)
	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		panic("runtime: set_returndata: guest memory read out of bounds")
	}
	rd := make([]byte, len(data))
	copy(rd, data)
	env.Returndata = rd
}

// buildHostModule registers the reserved "svm" namespace host imports on
// r, grounded on the teacher's ContractEngine's
// NewHostModuleBuilder/WithFunc wiring idiom.
func buildHostModule(ctx context.Context, r wazero.Runtime) (api.Closer, error) {
	return r.NewHostModuleBuilder(hostNamespace).
		NewFunctionBuilder().WithFunc(store160).Export("store160").
		NewFunctionBuilder().WithFunc(load160).Export("load160").
		NewFunctionBuilder().WithFunc(get32).Export("get32").
		NewFunctionBuilder().WithFunc(set32).Export("set32").
		NewFunctionBuilder().WithFunc(get64).Export("get64").
		NewFunctionBuilder().WithFunc(set64).Export("set64").
		NewFunctionBuilder().WithFunc(hostLog).Export("log").
		NewFunctionBuilder().WithFunc(setReturndata).Export("set_returndata").
		Instantiate(ctx)
}
