package runtime

// A small, hand-assembled Wasm module used as the test fixture for the
// execution pipeline, built without a Wasm toolchain. It imports the two
// "svm" host functions that report back to the caller (log,
// set_returndata) and exports:
//   - "memory": one page of linear memory
//   - "ok" / "echo": two export names for the same function, which
//     echoes its (ptr, len) arguments through log and set_returndata
//   - "bad": a function that immediately traps (unreachable)
//   - "svm_alloc": always returns pointer 0
//   - "svm_verify": the same (i32,i32)->() body, exported under the
//     reserved verify name to drive an ABI mismatch against the real
//     ()->(i32) svm_verify signature
//
// "ok" is registered as the template's sole constructor; "echo" exports
// the identical behavior under a name the constructor dispatch rule
// treats as an ordinary function, letting the same code serve both
// Spawn and Call success tests.

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func wasmStr(s string) []byte {
	out := uleb128(uint32(len(s)))
	out = append(out, []byte(s)...)
	return out
}

func wasmSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(content)))...)
	out = append(out, content...)
	return out
}

const (
	wasmI32 = 0x7f
)

func buildFixtureWasm() []byte {
	// Type section: type0 (i32,i32)->(), type1 (i32)->(i32)
	typeSec := []byte{0x02}
	typeSec = append(typeSec, 0x60, 0x02, wasmI32, wasmI32, 0x00)
	typeSec = append(typeSec, 0x60, 0x01, wasmI32, 0x01, wasmI32)

	// Import section: svm.log (type0), svm.set_returndata (type0)
	importSec := []byte{0x02}
	importSec = append(importSec, wasmStr("svm")...)
	importSec = append(importSec, wasmStr("log")...)
	importSec = append(importSec, 0x00, 0x00)
	importSec = append(importSec, wasmStr("svm")...)
	importSec = append(importSec, wasmStr("set_returndata")...)
	importSec = append(importSec, 0x00, 0x00)

	// Function section: local func0 (ok/echo body) type0, func1 (bad) type0,
	// func2 (svm_alloc) type1. Local func indices follow the 2 imports, so
	// their absolute indices are 2, 3, 4.
	funcSec := []byte{0x03, 0x00, 0x00, 0x01}

	// Memory section: one memory, min 1 page.
	memSec := []byte{0x01, 0x00, 0x01}

	// Export section. "svm_verify" is bound to the same (i32,i32)->()
	// body as "ok"/"echo" on purpose: it lets a test drive a function
	// genuinely named svm_verify through the wrong ABI, to exercise
	// FuncInvalidSignature.
	exportSec := []byte{0x06}
	exportSec = append(exportSec, wasmStr("memory")...)
	exportSec = append(exportSec, 0x02, 0x00)
	exportSec = append(exportSec, wasmStr("ok")...)
	exportSec = append(exportSec, 0x00, 0x02)
	exportSec = append(exportSec, wasmStr("echo")...)
	exportSec = append(exportSec, 0x00, 0x02)
	exportSec = append(exportSec, wasmStr("bad")...)
	exportSec = append(exportSec, 0x00, 0x03)
	exportSec = append(exportSec, wasmStr("svm_alloc")...)
	exportSec = append(exportSec, 0x00, 0x04)
	exportSec = append(exportSec, wasmStr("svm_verify")...)
	exportSec = append(exportSec, 0x00, 0x02)

	// Code section.
	okBody := []byte{
		0x00,       // 0 local decls
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x10, 0x00, // call 0 (log)
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x10, 0x01, // call 1 (set_returndata)
		0x0b, // end
	}
	badBody := []byte{0x00, 0x00, 0x0b} // 0 locals, unreachable, end
	allocBody := []byte{0x00, 0x41, 0x00, 0x0b} // 0 locals, i32.const 0, end

	codeSec := []byte{0x03}
	for _, body := range [][]byte{okBody, badBody, allocBody} {
		codeSec = append(codeSec, uleb128(uint32(len(body)))...)
		codeSec = append(codeSec, body...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, wasmSection(0x01, typeSec)...)
	out = append(out, wasmSection(0x02, importSec)...)
	out = append(out, wasmSection(0x03, funcSec)...)
	out = append(out, wasmSection(0x05, memSec)...)
	out = append(out, wasmSection(0x07, exportSec)...)
	out = append(out, wasmSection(0x0a, codeSec)...)
	return out
}

const wasmI64 = 0x7e

// buildStorageFixtureWasm assembles a second hand-built module that
// exercises all six storage host imports, used to demonstrate the
// nonzero-state spawn/call path the "ok"/"echo" fixture above cannot (its
// constructor never touches storage). It imports store160, load160,
// get32, set32, get64, set64, log, and set_returndata, and exports:
//   - "memory"
//   - "ctor_write": writes var 0 (width 20, left zero-filled), var 1
//     (width 4) to 42, and var 2 (width 8) to 7
//   - "read_back": reads all three vars back and reports them (20 bytes
//     of var0 zeros, then the little-endian 4-byte 42, then the
//     little-endian 8-byte 7) through log and set_returndata
//   - "svm_alloc": always returns pointer 0 (present but unused by the
//     tests that exercise this module, since both calls above pass no
//     calldata)
func buildStorageFixtureWasm() []byte {
	// Type section: type0 (i32,i32)->(), type1 (i32)->(i32),
	// type2 (i32,i64)->(), type3 (i32)->(i64).
	typeSec := []byte{0x04}
	typeSec = append(typeSec, 0x60, 0x02, wasmI32, wasmI32, 0x00)
	typeSec = append(typeSec, 0x60, 0x01, wasmI32, 0x01, wasmI32)
	typeSec = append(typeSec, 0x60, 0x02, wasmI32, wasmI64, 0x00)
	typeSec = append(typeSec, 0x60, 0x01, wasmI32, 0x01, wasmI64)

	// Import section: store160(0), load160(1), get32(2), set32(3),
	// get64(4), set64(5), log(6), set_returndata(7).
	imports := []struct {
		name    string
		typeIdx byte
	}{
		{"store160", 0x00}, {"load160", 0x00}, {"get32", 0x01}, {"set32", 0x00},
		{"get64", 0x03}, {"set64", 0x02}, {"log", 0x00}, {"set_returndata", 0x00},
	}
	importSec := []byte{byte(len(imports))}
	for _, imp := range imports {
		importSec = append(importSec, wasmStr("svm")...)
		importSec = append(importSec, wasmStr(imp.name)...)
		importSec = append(importSec, 0x00, imp.typeIdx)
	}

	// Function section: ctor_write (type0, idx8), read_back (type0,
	// idx9), svm_alloc (type1, idx10). Absolute indices follow the 8
	// imports.
	funcSec := []byte{0x03, 0x00, 0x00, 0x01}

	memSec := []byte{0x01, 0x00, 0x01}

	exportSec := []byte{0x03}
	exportSec = append(exportSec, wasmStr("memory")...)
	exportSec = append(exportSec, 0x02, 0x00)
	exportSec = append(exportSec, wasmStr("ctor_write")...)
	exportSec = append(exportSec, 0x00, 0x08)
	exportSec = append(exportSec, wasmStr("read_back")...)
	exportSec = append(exportSec, 0x00, 0x09)
	exportSec = append(exportSec, wasmStr("svm_alloc")...)
	exportSec = append(exportSec, 0x00, 0x0a)

	ctorWriteBody := []byte{
		0x00,       // 0 local decls
		0x41, 0x00, // i32.const 0   (memPtr for store160)
		0x41, 0x00, // i32.const 0   (var 0)
		0x10, 0x00, // call store160
		0x41, 0x01, // i32.const 1   (var 1)
		0x41, 0x2a, // i32.const 42
		0x10, 0x03, // call set32
		0x41, 0x02, // i32.const 2   (var 2)
		0x42, 0x07, // i64.const 7
		0x10, 0x05, // call set64
		0x0b, // end
	}
	readBackBody := []byte{
		0x00,       // 0 local decls
		0x41, 0x00, // i32.const 0   (var 0)
		0x41, 0x00, // i32.const 0   (memPtr)
		0x10, 0x01, // call load160  -> writes 20 bytes at mem[0:20]
		0x41, 0x14, // i32.const 20  (address for get32 result)
		0x41, 0x01, // i32.const 1   (var 1)
		0x10, 0x02, // call get32
		0x36, 0x02, 0x00, // i32.store align=2 offset=0 -> mem[20:24]
		0x41, 0x18, // i32.const 24  (address for get64 result)
		0x41, 0x02, // i32.const 2   (var 2)
		0x10, 0x04, // call get64
		0x37, 0x03, 0x00, // i64.store align=3 offset=0 -> mem[24:32]
		0x41, 0x00, // i32.const 0   (ptr)
		0x41, 0x20, // i32.const 32  (len)
		0x10, 0x06, // call log
		0x41, 0x00, // i32.const 0   (ptr)
		0x41, 0x20, // i32.const 32  (len)
		0x10, 0x07, // call set_returndata
		0x0b, // end
	}
	allocBody := []byte{0x00, 0x41, 0x00, 0x0b}

	codeSec := []byte{0x03}
	for _, body := range [][]byte{ctorWriteBody, readBackBody, allocBody} {
		codeSec = append(codeSec, uleb128(uint32(len(body)))...)
		codeSec = append(codeSec, body...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, wasmSection(0x01, typeSec)...)
	out = append(out, wasmSection(0x02, importSec)...)
	out = append(out, wasmSection(0x03, funcSec)...)
	out = append(out, wasmSection(0x05, memSec)...)
	out = append(out, wasmSection(0x07, exportSec)...)
	out = append(out, wasmSection(0x0a, codeSec)...)
	return out
}

// buildVerifyFixtureWasm assembles a third hand-built module with no host
// imports, used to exercise Runtime.Verify's svm_verify dispatch. It
// exports:
//   - "memory"
//   - "noop_ctor": takes (ptr, len) and does nothing, registered as the
//     template's sole constructor
//   - "svm_alloc": always returns pointer 0
//   - "svm_verify": takes no arguments and always returns 0 (valid)
func buildVerifyFixtureWasm() []byte {
	// Type section: type0 (i32,i32)->(), type1 (i32)->(i32), type2 ()->(i32).
	typeSec := []byte{0x03}
	typeSec = append(typeSec, 0x60, 0x02, wasmI32, wasmI32, 0x00)
	typeSec = append(typeSec, 0x60, 0x01, wasmI32, 0x01, wasmI32)
	typeSec = append(typeSec, 0x60, 0x00, 0x01, wasmI32)

	// Function section: noop_ctor (type0, idx0), svm_alloc (type1, idx1),
	// svm_verify (type2, idx2). No imports, so these are absolute indices.
	funcSec := []byte{0x03, 0x00, 0x01, 0x02}

	memSec := []byte{0x01, 0x00, 0x01}

	exportSec := []byte{0x04}
	exportSec = append(exportSec, wasmStr("memory")...)
	exportSec = append(exportSec, 0x02, 0x00)
	exportSec = append(exportSec, wasmStr("noop_ctor")...)
	exportSec = append(exportSec, 0x00, 0x00)
	exportSec = append(exportSec, wasmStr("svm_alloc")...)
	exportSec = append(exportSec, 0x00, 0x01)
	exportSec = append(exportSec, wasmStr("svm_verify")...)
	exportSec = append(exportSec, 0x00, 0x02)

	noopCtorBody := []byte{0x00, 0x0b}
	allocBody := []byte{0x00, 0x41, 0x00, 0x0b}
	verifyBody := []byte{0x00, 0x41, 0x00, 0x0b}

	codeSec := []byte{0x03}
	for _, body := range [][]byte{noopCtorBody, allocBody, verifyBody} {
		codeSec = append(codeSec, uleb128(uint32(len(body)))...)
		codeSec = append(codeSec, body...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, wasmSection(0x01, typeSec)...)
	out = append(out, wasmSection(0x03, funcSec)...)
	out = append(out, wasmSection(0x05, memSec)...)
	out = append(out, wasmSection(0x07, exportSec)...)
	out = append(out, wasmSection(0x0a, codeSec)...)
	return out
}
