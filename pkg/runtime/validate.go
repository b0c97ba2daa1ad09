package runtime

import (
	"github.com/opensvm/svm/pkg/codec"
	"github.com/opensvm/svm/pkg/errs"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// floatOpcodes are the Wasm float instruction opcodes rejected by static
// validation, the same byte-level scan the teacher's ValidateWasmCode
// performs, generalized here to a determinism requirement: floating-point
// arithmetic is non-reproducible across hosts.
var floatOpcodes = map[byte]bool{
	0x43: true, 0x44: true, 0x8b: true, 0x8c: true,
	0x8d: true, 0x8e: true, 0x99: true, 0x9a: true,
	0x9b: true, 0x9c: true,
}

const svmAllocExportName = "svm_alloc"

func validateWasmBytes(wasm []byte) error {
	if len(wasm) < 8 || string(wasm[:4]) != string(wasmMagic) {
		return errs.NewValidateError("missing wasm magic bytes")
	}
	for _, b := range wasm {
		if floatOpcodes[b] {
			return errs.NewValidateError("floating-point opcode present")
		}
	}
	if !hasExport(wasm, svmAllocExportName) {
		return errs.NewValidateError("missing svm_alloc export")
	}
	return nil
}

// hasExport scans the export section (id 7) of a Wasm binary for an entry
// named name, regardless of export kind. A hand-rolled section/LEB128 scan
// rather than a full decode, since this check runs ahead of compilation
// and has no CompiledModule to query yet.
func hasExport(wasm []byte, name string) bool {
	off := 8
	for off < len(wasm) {
		id := wasm[off]
		off++
		size, n, ok := readULEB128(wasm, off)
		if !ok {
			return false
		}
		off += n
		end := off + int(size)
		if end > len(wasm) {
			return false
		}
		if id == 7 && exportSectionHasName(wasm[off:end], name) {
			return true
		}
		off = end
	}
	return false
}

func exportSectionHasName(body []byte, name string) bool {
	count, n, ok := readULEB128(body, 0)
	if !ok {
		return false
	}
	off := n
	for i := uint32(0); i < count; i++ {
		nameLen, n, ok := readULEB128(body, off)
		if !ok {
			return false
		}
		off += n
		if off+int(nameLen) > len(body) {
			return false
		}
		entryName := string(body[off : off+int(nameLen)])
		off += int(nameLen)
		if entryName == name {
			return true
		}
		if off >= len(body) {
			return false
		}
		off++ // export kind byte
		_, n, ok = readULEB128(body, off)
		if !ok {
			return false
		}
		off += n
	}
	return false
}

// readULEB128 decodes an unsigned LEB128 varint starting at off, returning
// the value and the number of bytes consumed.
func readULEB128(b []byte, off int) (value uint32, n int, ok bool) {
	var shift uint
	for off+n < len(b) {
		byt := b[off+n]
		value |= uint32(byt&0x7f) << shift
		n++
		if byt&0x80 == 0 {
			return value, n, true
		}
		shift += 7
		if shift >= 35 {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

// ValidateDeploy performs the pre-execution checks on a Deploy message:
// well-formed template, a present Code section, and a statically valid
// Wasm module. It does not compile or instantiate the module.
func ValidateDeploy(deployBytes []byte) (*codec.DeployTemplate, error) {
	deploy, err := codec.DecodeDeploy(deployBytes)
	if err != nil {
		return nil, err
	}
	codeSec := deploy.Template.Section(codec.SectionCode)
	if codeSec == nil {
		return nil, errs.NewValidateError("template missing code section")
	}
	code, err := codec.DecodeCodeSection(codeSec.Payload)
	if err != nil {
		return nil, err
	}
	if err := validateWasmBytes(code.Wasm); err != nil {
		return nil, err
	}
	return deploy, nil
}

// ValidateSpawn parses a SpawnAccount message with no further side
// effects.
func ValidateSpawn(spawnBytes []byte) (*codec.SpawnAccount, error) {
	return codec.DecodeSpawn(spawnBytes)
}

// ValidateCall parses a Call message with no further side effects.
func ValidateCall(callBytes []byte) (*codec.Call, error) {
	return codec.DecodeCall(callBytes)
}
