// Package cmd implements the svm developer CLI: init/deploy/spawn/call/
// verify/query/serve subcommands against a Pebble-backed home directory,
// grounded on the teacher's cmd/opencoin/cmd/root.go (persistent --home
// flag, subcommand tree, fmt.Println+os.Exit(1) error handling).
package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/codec"
	"github.com/opensvm/svm/pkg/config"
	"github.com/opensvm/svm/pkg/environment"
	"github.com/opensvm/svm/pkg/metrics"
	"github.com/opensvm/svm/pkg/runtime"
	"github.com/opensvm/svm/pkg/storage"
)

// RootCmd is the CLI entry point.
var RootCmd = &cobra.Command{
	Use:   "svm",
	Short: "svm - a deterministic smart-contract execution platform",
	Long:  `svm deploys templates, spawns accounts, and invokes exported functions inside a sandboxed, gas-metered Wasm runtime.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("svm: deterministic smart-contract execution")
	},
}

func dataDir(home string) string { return filepath.Join(home, "data") }
func configPath(home string) string { return filepath.Join(home, "config.json") }

func openRuntime(home string) (*runtime.Runtime, *environment.Env, storage.KVBackend, error) {
	cfg, err := config.Load(configPath(home))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config (did you run `svm init`?): %w", err)
	}
	backend, err := storage.OpenPebbleBackend(dataDir(home))
	if err != nil {
		return nil, nil, nil, err
	}
	env := environment.New(backend)
	rt := runtime.New(context.Background(), env, backend, cfg, metrics.New())
	return rt, env, backend, nil
}

func parseAccountAddr(s string) (address.AccountAddress, error) {
	var a address.AccountAddress
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid account address %q", s)
	}
	copy(a[:], b)
	return a, nil
}

func parseTemplateAddr(s string) (address.TemplateAddress, error) {
	var a address.TemplateAddress
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(a) {
		return a, fmt.Errorf("invalid template address %q", s)
	}
	copy(a[:], b)
	return a, nil
}

func parseState(s string) (address.State, error) {
	var st address.State
	if s == "" {
		return address.ZeroState, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(st) {
		return st, fmt.Errorf("invalid state %q", s)
	}
	copy(st[:], b)
	return st, nil
}

func parseWidths(s string) ([]uint32, error) {
	if s == "" {
		return nil, fmt.Errorf("at least one storage variable width is required")
	}
	parts := strings.Split(s, ",")
	widths := make([]uint32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid width %q: %w", p, err)
		}
		widths[i] = uint32(n)
	}
	return widths, nil
}

func parseNames(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new svm home directory",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		if err := os.MkdirAll(home, 0o700); err != nil {
			fmt.Println("failed to create home:", err)
			os.Exit(1)
		}
		cfg := config.DefaultConfig()
		cfg.HomeDir = home
		if err := config.Save(configPath(home), cfg); err != nil {
			fmt.Println("failed to save config:", err)
			os.Exit(1)
		}
		fmt.Println("initialized svm home at", home)
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy [wasm-file]",
	Short: "Deploy a template from a Wasm file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		name, _ := cmd.Flags().GetString("name")
		widthsFlag, _ := cmd.Flags().GetString("data-widths")
		ctorsFlag, _ := cmd.Flags().GetString("ctors")
		gasLimit, _ := cmd.Flags().GetUint64("gas-limit")

		wasm, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Println("failed to read wasm file:", err)
			os.Exit(1)
		}
		widths, err := parseWidths(widthsFlag)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		dataPayload, err := codec.EncodeDataSection(&codec.DataSection{FirstID: 0, Widths: widths})
		if err != nil {
			fmt.Println("failed to encode data section:", err)
			os.Exit(1)
		}
		ctorsPayload, err := codec.EncodeCtorsSection(&codec.CtorsSection{Names: parseNames(ctorsFlag)})
		if err != nil {
			fmt.Println("failed to encode ctors section:", err)
			os.Exit(1)
		}
		tmpl := &codec.Template{Sections: []codec.Section{
			{Kind: codec.SectionCode, Payload: codec.EncodeCodeSection(&codec.CodeSection{GasMode: codec.GasModeFixed, CodeVersion: 1, Wasm: wasm})},
			{Kind: codec.SectionData, Payload: dataPayload},
			{Kind: codec.SectionCtors, Payload: ctorsPayload},
			{Kind: codec.SectionHeader, Payload: codec.EncodeHeaderSection(&codec.HeaderSection{Name: name, SvmVersion: 1, CodeVersion: 1})},
		}}
		deployBytes, err := codec.EncodeDeploy(&codec.DeployTemplate{Version: 1, Template: tmpl})
		if err != nil {
			fmt.Println("failed to encode deploy message:", err)
			os.Exit(1)
		}

		rt, _, backend, err := openRuntime(home)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer backend.Close()

		rcpt, err := rt.Deploy(deployBytes, runtime.Envelope{GasLimit: gasLimit})
		if err != nil {
			fmt.Println("deploy rejected:", err)
			os.Exit(1)
		}
		if !rcpt.Success {
			fmt.Println("deploy failed:", rcpt.Err)
			os.Exit(1)
		}
		fmt.Printf("template deployed: addr=%s gas_used=%d\n", rcpt.TemplateAddr, rcpt.GasUsed)
	},
}

var spawnCmd = &cobra.Command{
	Use:   "spawn [template-addr] [name] [ctor]",
	Short: "Spawn a new account from a deployed template",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		calldataHex, _ := cmd.Flags().GetString("calldata")
		gasLimit, _ := cmd.Flags().GetUint64("gas-limit")

		tmplAddr, err := parseTemplateAddr(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		calldata, err := hex.DecodeString(calldataHex)
		if err != nil {
			fmt.Println("invalid --calldata:", err)
			os.Exit(1)
		}
		spawnBytes := codec.EncodeSpawn(&codec.SpawnAccount{
			Version: 1, Template: tmplAddr, Name: args[1], CtorName: args[2], Calldata: calldata,
		})

		rt, _, backend, err := openRuntime(home)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer backend.Close()

		rcpt, err := rt.Spawn(spawnBytes, runtime.Envelope{GasLimit: gasLimit})
		if err != nil {
			fmt.Println("spawn rejected:", err)
			os.Exit(1)
		}
		if !rcpt.Success {
			fmt.Println("spawn failed:", rcpt.Err)
			os.Exit(1)
		}
		fmt.Printf("account spawned: addr=%s state=%s gas_used=%d\n", rcpt.AccountAddr, rcpt.InitState, rcpt.GasUsed)
	},
}

var callCmd = &cobra.Command{
	Use:   "call [account-addr] [func-name]",
	Short: "Invoke an exported function on an existing account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		calldataHex, _ := cmd.Flags().GetString("calldata")
		stateHex, _ := cmd.Flags().GetString("state")
		gasLimit, _ := cmd.Flags().GetUint64("gas-limit")

		target, err := parseAccountAddr(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		priorState, err := parseState(stateHex)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		calldata, err := hex.DecodeString(calldataHex)
		if err != nil {
			fmt.Println("invalid --calldata:", err)
			os.Exit(1)
		}
		callBytes := codec.EncodeCall(&codec.Call{Version: 1, Target: target, FuncName: args[1], Calldata: calldata})

		rt, _, backend, err := openRuntime(home)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer backend.Close()

		rcpt, err := rt.Call(callBytes, runtime.Envelope{GasLimit: gasLimit, PriorState: priorState})
		if err != nil {
			fmt.Println("call rejected:", err)
			os.Exit(1)
		}
		if !rcpt.Success {
			fmt.Println("call failed:", rcpt.Err)
			os.Exit(1)
		}
		fmt.Printf("call succeeded: new_state=%s returndata=%x gas_used=%d\n", rcpt.NewState, rcpt.Returndata, rcpt.GasUsed)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [account-addr]",
	Short: "Run the account template's svm_verify export under AccessDenied",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		stateHex, _ := cmd.Flags().GetString("state")
		gasLimit, _ := cmd.Flags().GetUint64("gas-limit")

		target, err := parseAccountAddr(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		priorState, err := parseState(stateHex)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		callBytes := codec.EncodeCall(&codec.Call{Version: 1, Target: target})

		rt, _, backend, err := openRuntime(home)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer backend.Close()

		rcpt, err := rt.Verify(callBytes, runtime.Envelope{GasLimit: gasLimit, PriorState: priorState})
		if err != nil {
			fmt.Println("verify rejected:", err)
			os.Exit(1)
		}
		if !rcpt.Success {
			fmt.Println("verify failed:", rcpt.Err)
			os.Exit(1)
		}
		fmt.Printf("verify succeeded: gas_used=%d\n", rcpt.GasUsed)
	},
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query deployed templates and spawned accounts",
}

var queryAccountCmd = &cobra.Command{
	Use:   "account [address]",
	Short: "Query a spawned account's template binding",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		addr, err := parseAccountAddr(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		_, env, backend, err := openRuntime(home)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer backend.Close()

		account, err := env.Accounts.Load(addr)
		if err != nil {
			fmt.Println("query failed:", err)
			os.Exit(1)
		}
		if account == nil {
			fmt.Println("account not found")
			return
		}
		fmt.Printf("name=%s template=%s\n", account.Name, account.Template)
	},
}

var queryTemplateCmd = &cobra.Command{
	Use:   "template [address]",
	Short: "Query a deployed template's sections",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := cmd.Flags().GetString("home")
		addr, err := parseTemplateAddr(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		_, env, backend, err := openRuntime(home)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer backend.Close()

		tmpl, err := env.Templates.Load(addr)
		if err != nil {
			fmt.Println("query failed:", err)
			os.Exit(1)
		}
		if tmpl == nil {
			fmt.Println("template not found")
			return
		}
		for _, s := range tmpl.Sections {
			fmt.Printf("section=%s bytes=%d\n", s.Kind, len(s.Payload))
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose Prometheus metrics and a health endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		fmt.Println("serving metrics on", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Println("serve failed:", err)
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().String("home", filepath.Join(os.Getenv("HOME"), ".svm"), "svm home directory")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(deployCmd)
	RootCmd.AddCommand(spawnCmd)
	RootCmd.AddCommand(callCmd)
	RootCmd.AddCommand(verifyCmd)
	RootCmd.AddCommand(queryCmd)
	RootCmd.AddCommand(serveCmd)

	queryCmd.AddCommand(queryAccountCmd)
	queryCmd.AddCommand(queryTemplateCmd)

	deployCmd.Flags().String("name", "", "template display name")
	deployCmd.Flags().String("data-widths", "", "comma-separated storage variable widths, e.g. 20,4,8")
	deployCmd.Flags().String("ctors", "", "comma-separated constructor function names")
	deployCmd.Flags().Uint64("gas-limit", 1_000_000, "gas limit for this operation")

	spawnCmd.Flags().String("calldata", "", "hex-encoded constructor calldata")
	spawnCmd.Flags().Uint64("gas-limit", 1_000_000, "gas limit for this operation")

	callCmd.Flags().String("calldata", "", "hex-encoded calldata")
	callCmd.Flags().String("state", "", "hex-encoded prior account state")
	callCmd.Flags().Uint64("gas-limit", 1_000_000, "gas limit for this operation")

	verifyCmd.Flags().String("state", "", "hex-encoded prior account state")
	verifyCmd.Flags().Uint64("gas-limit", 1_000_000, "gas limit for this operation")

	serveCmd.Flags().String("addr", ":9090", "listen address for /metrics and /health")
}
