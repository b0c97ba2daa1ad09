// Package runtime implements the execution orchestrator: validation,
// template/account resolution, Wasm compilation and instantiation, host
// import binding, the constructor dispatch rule, and gas accounting. The
// wazero wiring is grounded on the teacher's pkg/contracts.ContractEngine;
// the exact pipeline step ordering is grounded on the original
// implementation's runtime/default.rs run/exec/call_ctor chain.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/codec"
	"github.com/opensvm/svm/pkg/config"
	"github.com/opensvm/svm/pkg/environment"
	"github.com/opensvm/svm/pkg/errs"
	"github.com/opensvm/svm/pkg/gas"
	"github.com/opensvm/svm/pkg/layout"
	"github.com/opensvm/svm/pkg/metrics"
	"github.com/opensvm/svm/pkg/storage"
)

// Envelope carries the per-transaction metadata the orchestrator needs
// beyond the parsed message body: the gas budget, provenance for Deploy's
// recorded DeploySection, and the prior State a Call resumes from.
type Envelope struct {
	GasLimit  uint64
	TxID      [32]byte
	Layer     uint64
	Principal address.AccountAddress
	PriorState address.State
}

// Runtime is the orchestrator. Not safe for concurrent use by multiple
// goroutines against the same underlying storage backend without external
// serialization, per SPEC_FULL.md §5.
type Runtime struct {
	env        *environment.Env
	backend    storage.KVBackend
	cfg        *config.RuntimeConfig
	wz         wazero.Runtime
	priceCache *gas.PriceCache
	metrics    *metrics.Metrics

	mu      sync.Mutex
	compiled map[address.TemplateAddress]wazero.CompiledModule
}

// New builds a Runtime over env/backend configured by cfg. metrics may be
// nil to disable instrumentation.
func New(ctx context.Context, env *environment.Env, backend storage.KVBackend, cfg *config.RuntimeConfig, m *metrics.Metrics) *Runtime {
	wz := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(cfg.MemoryLimitPages))
	return &Runtime{
		env:        env,
		backend:    backend,
		cfg:        cfg,
		wz:         wz,
		priceCache: gas.NewPriceCache(),
		metrics:    m,
		compiled:   make(map[address.TemplateAddress]wazero.CompiledModule),
	}
}

// Close releases the underlying Wasm engine.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.wz.Close(ctx)
}

func failureReceipt(typ codec.ReceiptType, version uint16, err error, logs [][]byte) *codec.Receipt {
	return &codec.Receipt{Type: typ, Version: version, Success: false, Err: err, Logs: logs}
}

// Deploy validates, addresses, and persists a template.
func (rt *Runtime) Deploy(deployBytes []byte, envl Envelope) (*codec.Receipt, error) {
	deploy, err := ValidateDeploy(deployBytes)
	if err != nil {
		return nil, err
	}

	serialized, err := codec.EncodeTemplate(deploy.Template)
	if err != nil {
		return nil, err
	}
	price := gas.PriceDeploy(serialized)
	if envl.GasLimit < price {
		if rt.metrics != nil {
			rt.metrics.ObserveDeploy(false)
		}
		return failureReceipt(codec.ReceiptDeploy, deploy.Version, errs.NewOOG(), nil), nil
	}

	addr := address.DeriveTemplateAddress(serialized)
	hash := address.HashTemplate(serialized)

	final := &codec.Template{Sections: append([]codec.Section{}, deploy.Template.Sections...)}
	final.Sections = append(final.Sections, codec.Section{
		Kind: codec.SectionDeploy,
		Payload: codec.EncodeDeploySection(&codec.DeploySection{
			TxID:      envl.TxID,
			Layer:     envl.Layer,
			Principal: envl.Principal,
			Template:  addr,
		}),
	})

	if err := rt.env.Templates.Store(final, addr, hash); err != nil {
		return nil, fmt.Errorf("runtime: deploy: %w", err)
	}

	if rt.metrics != nil {
		rt.metrics.ObserveDeploy(true)
		rt.metrics.ObserveGasUsed(price)
	}
	return &codec.Receipt{
		Type: codec.ReceiptDeploy, Version: deploy.Version, Success: true,
		TemplateAddr: addr, GasUsed: price,
	}, nil
}

// Spawn creates a new account from a template and runs its constructor.
func (rt *Runtime) Spawn(spawnBytes []byte, envl Envelope) (*codec.Receipt, error) {
	spawn, err := ValidateSpawn(spawnBytes)
	if err != nil {
		return nil, err
	}

	tmpl, err := rt.env.Templates.Load(spawn.Template)
	if err != nil {
		return nil, fmt.Errorf("runtime: spawn: %w", err)
	}
	if tmpl == nil {
		return rt.finishSpawnFailure(spawn.Version, errs.NewTemplateNotFound(spawn.Template.String())), nil
	}

	ctorsSec := tmpl.Section(codec.SectionCtors)
	var ctors *codec.CtorsSection
	if ctorsSec != nil {
		ctors, err = codec.DecodeCtorsSection(ctorsSec.Payload)
		if err != nil {
			return nil, fmt.Errorf("runtime: spawn: %w", err)
		}
	}
	if ctors == nil || !ctors.Contains(spawn.CtorName) {
		return rt.finishSpawnFailure(spawn.Version, errs.NewFuncNotAllowed(
			"", spawn.Template.String(), spawn.CtorName, "expected constructor",
		)), nil
	}

	price := rt.priceCache.EnsureFixedPrice(spawn.Template.String(), spawn.CtorName, func() uint64 {
		return gas.PriceCall(spawn.Calldata)
	})
	if envl.GasLimit <= price {
		if rt.metrics != nil {
			rt.metrics.ObserveSpawn(false)
		}
		return failureReceipt(codec.ReceiptSpawn, spawn.Version, errs.NewOOG(), nil), nil
	}

	accountAddr := address.DeriveAccountAddress(spawn.Template, spawn.Name, spawn.Calldata)
	if err := rt.env.Accounts.Store(&environment.Account{Name: spawn.Name, Template: spawn.Template}, accountAddr); err != nil {
		return nil, fmt.Errorf("runtime: spawn: %w", err)
	}

	outcome, err := rt.execute(context.Background(), execParams{
		target:       accountAddr,
		templateAddr: spawn.Template,
		template:     tmpl,
		funcName:     spawn.CtorName,
		calldata:     spawn.Calldata,
		priorState:   address.ZeroState,
		withinSpawn:  true,
	})
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.ObserveSpawn(false)
		}
		return failureReceipt(codec.ReceiptSpawn, spawn.Version, err, outcome.logs), nil
	}

	if rt.metrics != nil {
		rt.metrics.ObserveSpawn(true)
		rt.metrics.ObserveGasUsed(price)
	}
	return &codec.Receipt{
		Type: codec.ReceiptSpawn, Version: spawn.Version, Success: true,
		AccountAddr: accountAddr, InitState: outcome.newState, Returndata: outcome.returndata,
		GasUsed: price, Logs: outcome.logs,
	}, nil
}

func (rt *Runtime) finishSpawnFailure(version uint16, err error) *codec.Receipt {
	if rt.metrics != nil {
		rt.metrics.ObserveSpawn(false)
	}
	return failureReceipt(codec.ReceiptSpawn, version, err, nil)
}

// Call invokes an exported function on an existing account.
func (rt *Runtime) Call(callBytes []byte, envl Envelope) (*codec.Receipt, error) {
	call, err := ValidateCall(callBytes)
	if err != nil {
		return nil, err
	}

	templateAddr, err := rt.env.Accounts.ResolveTemplateAddr(call.Target)
	if err != nil {
		return nil, fmt.Errorf("runtime: call: %w", err)
	}
	if templateAddr.IsZero() {
		if rt.metrics != nil {
			rt.metrics.ObserveCall(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, errs.NewAccountNotFound(call.Target.String()), nil), nil
	}

	tmpl, err := rt.env.Templates.Load(templateAddr)
	if err != nil {
		return nil, fmt.Errorf("runtime: call: %w", err)
	}
	if tmpl == nil {
		if rt.metrics != nil {
			rt.metrics.ObserveCall(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, errs.NewTemplateNotFound(templateAddr.String()), nil), nil
	}

	if ctorsSec := tmpl.Section(codec.SectionCtors); ctorsSec != nil {
		ctors, err := codec.DecodeCtorsSection(ctorsSec.Payload)
		if err != nil {
			return nil, fmt.Errorf("runtime: call: %w", err)
		}
		if ctors.Contains(call.FuncName) {
			if rt.metrics != nil {
				rt.metrics.ObserveCall(false)
			}
			return failureReceipt(codec.ReceiptCall, call.Version, errs.NewFuncNotAllowed(
				call.Target.String(), templateAddr.String(), call.FuncName, "expected non-constructor",
			), nil), nil
		}
	}

	price := rt.priceCache.EnsureFixedPrice(templateAddr.String(), call.FuncName, func() uint64 {
		return gas.PriceCall(call.Calldata)
	})
	if envl.GasLimit <= price {
		if rt.metrics != nil {
			rt.metrics.ObserveCall(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, errs.NewOOG(), nil), nil
	}

	outcome, err := rt.execute(context.Background(), execParams{
		target:       call.Target,
		templateAddr: templateAddr,
		template:     tmpl,
		funcName:     call.FuncName,
		calldata:     call.Calldata,
		priorState:   envl.PriorState,
		withinSpawn:  false,
	})
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.ObserveCall(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, err, outcome.logs), nil
	}

	if rt.metrics != nil {
		rt.metrics.ObserveCall(true)
		rt.metrics.ObserveGasUsed(price)
	}
	return &codec.Receipt{
		Type: codec.ReceiptCall, Version: call.Version, Success: true,
		NewState: outcome.newState, Returndata: outcome.returndata,
		GasUsed: price, Logs: outcome.logs,
	}, nil
}

// Verify runs the well-known svm_verify export under AccessDenied
// protected mode, ahead of (and independent from) Call's function
// invocation. Grounded on the original implementation's
// runtime/default.rs verify/exec_call chain; no verifydata is passed per
// SPEC_FULL.md §11's resolution of that Open Question.
func (rt *Runtime) Verify(callBytes []byte, envl Envelope) (*codec.Receipt, error) {
	call, err := ValidateCall(callBytes)
	if err != nil {
		return nil, err
	}

	templateAddr, err := rt.env.Accounts.ResolveTemplateAddr(call.Target)
	if err != nil {
		return nil, fmt.Errorf("runtime: verify: %w", err)
	}
	if templateAddr.IsZero() {
		if rt.metrics != nil {
			rt.metrics.ObserveVerify(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, errs.NewAccountNotFound(call.Target.String()), nil), nil
	}

	tmpl, err := rt.env.Templates.Load(templateAddr)
	if err != nil {
		return nil, fmt.Errorf("runtime: verify: %w", err)
	}
	if tmpl == nil {
		if rt.metrics != nil {
			rt.metrics.ObserveVerify(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, errs.NewTemplateNotFound(templateAddr.String()), nil), nil
	}

	price := rt.priceCache.EnsureFixedPrice(templateAddr.String(), svmVerifyFuncName, func() uint64 {
		return gas.PriceCall(nil)
	})
	if envl.GasLimit <= price {
		if rt.metrics != nil {
			rt.metrics.ObserveVerify(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, errs.NewOOG(), nil), nil
	}

	outcome, err := rt.execute(context.Background(), execParams{
		target:        call.Target,
		templateAddr:  templateAddr,
		template:      tmpl,
		funcName:      svmVerifyFuncName,
		calldata:      nil,
		priorState:    envl.PriorState,
		protectedMode: AccessDenied,
	})
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.ObserveVerify(false)
		}
		return failureReceipt(codec.ReceiptCall, call.Version, err, outcome.logs), nil
	}

	if rt.metrics != nil {
		rt.metrics.ObserveVerify(true)
		rt.metrics.ObserveGasUsed(price)
	}
	return &codec.Receipt{
		Type: codec.ReceiptCall, Version: call.Version, Success: true,
		NewState: outcome.newState, Returndata: outcome.returndata,
		GasUsed: price, Logs: outcome.logs,
	}, nil
}

// buildLayout decodes the template's Data section into a Layout.
func buildLayout(tmpl *codec.Template) (*layout.Layout, error) {
	dataSec := tmpl.Section(codec.SectionData)
	if dataSec == nil {
		return nil, fmt.Errorf("runtime: template missing data section")
	}
	data, err := codec.DecodeDataSection(dataSec.Payload)
	if err != nil {
		return nil, err
	}
	return layout.New(data.FirstID, data.Widths)
}
