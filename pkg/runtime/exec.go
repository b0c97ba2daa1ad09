package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/codec"
	"github.com/opensvm/svm/pkg/errs"
	"github.com/opensvm/svm/pkg/storage"
)

// svmVerifyFuncName is the well-known guest export svm_verify invoked by
// Runtime.Verify, grounded on the original implementation's
// runtime/default.rs verify/exec_call chain.
const svmVerifyFuncName = "svm_verify"

// execParams names everything the shared pipeline needs regardless of
// which operation (Spawn's constructor, Call's target function, or
// Verify's svm_verify) invoked it.
type execParams struct {
	target        address.AccountAddress
	templateAddr  address.TemplateAddress
	template      *codec.Template
	funcName      string
	calldata      []byte
	priorState    address.State
	withinSpawn   bool
	protectedMode ProtectedMode
}

// expectedSignature returns the ABI a guest export must present: every
// ordinary constructor or call target takes (ptr, len) and returns
// nothing, while the reserved svm_verify export takes nothing and
// returns a single i32 status code.
func expectedSignature(funcName string) (params, results []api.ValueType) {
	if funcName == svmVerifyFuncName {
		return nil, []api.ValueType{api.ValueTypeI32}
	}
	return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil
}

type execOutcome struct {
	newState   address.State
	returndata []byte
	logs       [][]byte
}

// execute runs the nine-step pipeline common to Spawn's constructor call
// and Call's function invocation: resolve layout, compile, instantiate,
// bind host imports, stage calldata via svm_alloc, invoke, and commit
// storage. Grounded on the original implementation's
// runtime/default.rs run/exec/call_ctor chain.
func (rt *Runtime) execute(ctx context.Context, p execParams) (execOutcome, error) {
	var outcome execOutcome

	l, err := buildLayout(p.template)
	if err != nil {
		return outcome, errs.NewInstantiationFailed(p.target.String(), p.templateAddr.String(), err.Error())
	}
	vs := storage.Open(rt.backend, p.target, p.priorState, l)

	codeSec := p.template.Section(codec.SectionCode)
	if codeSec == nil {
		return outcome, errs.NewCompilationFailed(p.target.String(), p.templateAddr.String(), "template missing code section")
	}
	code, err := codec.DecodeCodeSection(codeSec.Payload)
	if err != nil {
		return outcome, errs.NewCompilationFailed(p.target.String(), p.templateAddr.String(), err.Error())
	}

	compiled, err := rt.compiledModule(ctx, p.templateAddr, code.Wasm)
	if err != nil {
		return outcome, errs.NewCompilationFailed(p.target.String(), p.templateAddr.String(), err.Error())
	}

	hostMod, err := buildHostModule(ctx, rt.wz)
	if err != nil {
		return outcome, errs.NewInstantiationFailed(p.target.String(), p.templateAddr.String(), err.Error())
	}
	defer hostMod.Close(ctx)

	modCfg := wazero.NewModuleConfig().WithName(p.target.String())
	mod, err := rt.wz.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return outcome, errs.NewInstantiationFailed(p.target.String(), p.templateAddr.String(), err.Error())
	}
	defer mod.Close(ctx)

	if mod.Memory() == nil {
		return outcome, errs.NewInstantiationFailed(p.target.String(), p.templateAddr.String(), "module exports no memory")
	}

	env := &FuncEnv{Store: vs, Mode: p.protectedMode}
	execCtx := WithFuncEnv(ctx, env)

	var ptr, length uint32
	if len(p.calldata) > 0 {
		allocFn := mod.ExportedFunction("svm_alloc")
		if allocFn == nil {
			return outcome, errs.NewFuncNotFound(p.target.String(), p.templateAddr.String(), "svm_alloc")
		}
		env.Mode = AccessDenied
		results, callErr := rt.callGuest(execCtx, allocFn, uint64(len(p.calldata)))
		env.Mode = p.protectedMode
		if callErr != nil {
			return outcome, errs.NewFuncFailed(p.target.String(), p.templateAddr.String(), "svm_alloc", callErr.Error())
		}
		ptr = uint32(results[0])
		length = uint32(len(p.calldata))
		if !mod.Memory().Write(ptr, p.calldata) {
			return outcome, errs.NewFuncFailed(p.target.String(), p.templateAddr.String(), "svm_alloc", "guest memory write out of bounds")
		}
	}

	targetFn := mod.ExportedFunction(p.funcName)
	if targetFn == nil {
		return outcome, errs.NewFuncNotFound(p.target.String(), p.templateAddr.String(), p.funcName)
	}
	wantParams, wantResults := expectedSignature(p.funcName)
	def := targetFn.Definition()
	if !sameValueTypes(def.ParamTypes(), wantParams) || !sameValueTypes(def.ResultTypes(), wantResults) {
		return outcome, errs.NewFuncInvalidSignature(p.target.String(), p.templateAddr.String(), p.funcName)
	}

	var callErr error
	var results []uint64
	if p.funcName == svmVerifyFuncName {
		results, callErr = rt.callGuest(execCtx, targetFn)
	} else {
		results, callErr = rt.callGuest(execCtx, targetFn, uint64(ptr), uint64(length))
	}
	if callErr != nil {
		return outcome, errs.NewFuncFailed(p.target.String(), p.templateAddr.String(), p.funcName, callErr.Error())
	}
	if p.funcName == svmVerifyFuncName {
		if code := uint32(results[0]); code != 0 {
			return outcome, errs.NewFuncFailed(p.target.String(), p.templateAddr.String(), p.funcName, fmt.Sprintf("verify rejected: code %d", code))
		}
	}

	newState, err := vs.Commit()
	if err != nil {
		return outcome, fmt.Errorf("runtime: commit: %w", err)
	}

	outcome.newState = newState
	outcome.returndata = env.Returndata
	outcome.logs = env.Logs
	return outcome, nil
}

// sameValueTypes compares two Wasm value-type signatures, treating a nil
// and an empty slice as equal (wazero may return either for a function
// with no params/results).
func sameValueTypes(got, want []api.ValueType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// callGuest invokes fn, converting a host-import panic (an out-of-range
// write, a width mismatch, an AccessDenied violation) into a plain error
// the pipeline folds into FuncFailed.
func (rt *Runtime) callGuest(ctx context.Context, fn api.Function, args ...uint64) (results []uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn.Call(ctx, args...)
}

// compiledModule returns the cached CompiledModule for templateAddr,
// compiling and caching it on first use. Templates are immutable once
// deployed, so the cache is never invalidated.
func (rt *Runtime) compiledModule(ctx context.Context, templateAddr address.TemplateAddress, wasm []byte) (wazero.CompiledModule, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if c, ok := rt.compiled[templateAddr]; ok {
		return c, nil
	}
	c, err := rt.wz.CompileModule(ctx, wasm)
	if err != nil {
		return nil, err
	}
	rt.compiled[templateAddr] = c
	return c, nil
}
