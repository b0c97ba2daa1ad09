package codec

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/byteio"
	"github.com/opensvm/svm/pkg/errs"
)

// ReceiptType discriminates the tagged-union Receipt payload.
type ReceiptType uint8

const (
	ReceiptDeploy ReceiptType = iota + 1
	ReceiptSpawn
	ReceiptCall
)

// Receipt is the decoded outcome of a Deploy, Spawn, or Call. Only the
// fields relevant to Type and Success are meaningful; the rest are zero.
type Receipt struct {
	Type    ReceiptType
	Version uint16
	Success bool
	GasUsed uint64
	Logs    [][]byte
	Err     error

	// Deploy
	TemplateAddr address.TemplateAddress

	// Spawn
	AccountAddr address.AccountAddress
	InitState   address.State
	Returndata  []byte

	// Call
	NewState address.State
}

// EncodeReceipt serializes a Receipt.
func EncodeReceipt(rcpt *Receipt) ([]byte, error) {
	w := byteio.NewWriter()
	w.PutUint8(uint8(rcpt.Type))
	w.PutUint16(rcpt.Version)
	if rcpt.Success {
		w.PutUint8(1)
	} else {
		w.PutUint8(0)
	}

	if rcpt.Success {
		switch rcpt.Type {
		case ReceiptDeploy:
			w.PutAddress(rcpt.TemplateAddr[:])
		case ReceiptSpawn:
			w.PutAddress(rcpt.AccountAddr[:])
			w.PutAddress(rcpt.InitState[:])
			w.PutBytes(rcpt.Returndata)
		case ReceiptCall:
			w.PutAddress(rcpt.NewState[:])
			w.PutBytes(rcpt.Returndata)
		default:
			return nil, fmt.Errorf("codec: unknown receipt type %d", rcpt.Type)
		}
		w.PutUint64(rcpt.GasUsed)
	} else {
		encodeRuntimeError(w, rcpt.Err)
	}

	logBytes, err := EncodeLogs(rcpt.Logs)
	if err != nil {
		return nil, err
	}
	w.PutRaw(logBytes)
	return w.Bytes(), nil
}

// DecodeReceipt parses a Receipt.
func DecodeReceipt(b []byte) (*Receipt, error) {
	r := byteio.NewReader(b)
	typ, err := r.GetUint8("type")
	if err != nil {
		return nil, err
	}
	version, err := r.GetUint16("version")
	if err != nil {
		return nil, err
	}
	successByte, err := r.GetUint8("success")
	if err != nil {
		return nil, err
	}

	rcpt := &Receipt{Type: ReceiptType(typ), Version: version, Success: successByte == 1}

	if rcpt.Success {
		switch rcpt.Type {
		case ReceiptDeploy:
			addr, err := r.GetAddress(20, "template_addr")
			if err != nil {
				return nil, err
			}
			copy(rcpt.TemplateAddr[:], addr)
		case ReceiptSpawn:
			addr, err := r.GetAddress(20, "account_addr")
			if err != nil {
				return nil, err
			}
			copy(rcpt.AccountAddr[:], addr)
			state, err := r.GetAddress(32, "init_state")
			if err != nil {
				return nil, err
			}
			copy(rcpt.InitState[:], state)
			rd, err := r.GetBytes("returndata")
			if err != nil {
				return nil, err
			}
			rcpt.Returndata = rd
		case ReceiptCall:
			state, err := r.GetAddress(32, "new_state")
			if err != nil {
				return nil, err
			}
			copy(rcpt.NewState[:], state)
			rd, err := r.GetBytes("returndata")
			if err != nil {
				return nil, err
			}
			rcpt.Returndata = rd
		default:
			return nil, fmt.Errorf("codec: unknown receipt type %d", rcpt.Type)
		}
		gasUsed, err := r.GetUint64("gas_used")
		if err != nil {
			return nil, err
		}
		rcpt.GasUsed = gasUsed
	} else {
		rcErr, err := decodeRuntimeError(r)
		if err != nil {
			return nil, err
		}
		rcpt.Err = rcErr
	}

	logs, err := DecodeLogsFrom(r)
	if err != nil {
		return nil, err
	}
	rcpt.Logs = logs
	return rcpt, nil
}

func encodeRuntimeError(w *byteio.Writer, err error) {
	re, ok := err.(*errs.RuntimeError)
	if !ok {
		w.PutUint8(0)
		return
	}
	w.PutUint8(uint8(re.Kind))
	switch re.Kind {
	case errs.OOG:
	case errs.TemplateNotFound:
		w.PutAddress(padAddr20(re.Template))
	case errs.AccountNotFound:
		w.PutAddress(padAddr20(re.Target))
	case errs.CompilationFailed, errs.InstantiationFailed:
		w.PutAddress(padAddr20(re.Target))
		w.PutAddress(padAddr20(re.Template))
		w.PutString(re.Msg)
	case errs.FuncNotFound:
		w.PutAddress(padAddr20(re.Target))
		w.PutAddress(padAddr20(re.Template))
		w.PutString(re.Func)
	case errs.FuncFailed, errs.FuncNotAllowed:
		w.PutAddress(padAddr20(re.Target))
		w.PutAddress(padAddr20(re.Template))
		w.PutString(re.Func)
		w.PutString(re.Msg)
	case errs.FuncInvalidSignature:
		w.PutAddress(padAddr20(re.Target))
		w.PutAddress(padAddr20(re.Template))
		w.PutString(re.Func)
	}
}

func decodeRuntimeError(r *byteio.Reader) (error, error) {
	tag, err := r.GetUint8("error_tag")
	if err != nil {
		return nil, err
	}
	kind := errs.RuntimeErrorKind(tag)
	switch kind {
	case errs.OOG:
		return &errs.RuntimeError{Kind: errs.OOG}, nil
	case errs.TemplateNotFound:
		tmpl, err := r.GetAddress(20, "template")
		if err != nil {
			return nil, err
		}
		return &errs.RuntimeError{Kind: kind, Template: addrHex(tmpl)}, nil
	case errs.AccountNotFound:
		target, err := r.GetAddress(20, "target")
		if err != nil {
			return nil, err
		}
		return &errs.RuntimeError{Kind: kind, Target: addrHex(target)}, nil
	case errs.CompilationFailed, errs.InstantiationFailed:
		target, err := r.GetAddress(20, "target")
		if err != nil {
			return nil, err
		}
		tmpl, err := r.GetAddress(20, "template")
		if err != nil {
			return nil, err
		}
		msg, err := r.GetString("msg")
		if err != nil {
			return nil, err
		}
		return &errs.RuntimeError{Kind: kind, Target: addrHex(target), Template: addrHex(tmpl), Msg: msg}, nil
	case errs.FuncNotFound:
		target, err := r.GetAddress(20, "target")
		if err != nil {
			return nil, err
		}
		tmpl, err := r.GetAddress(20, "template")
		if err != nil {
			return nil, err
		}
		fn, err := r.GetString("func")
		if err != nil {
			return nil, err
		}
		return &errs.RuntimeError{Kind: kind, Target: addrHex(target), Template: addrHex(tmpl), Func: fn}, nil
	case errs.FuncFailed, errs.FuncNotAllowed:
		target, err := r.GetAddress(20, "target")
		if err != nil {
			return nil, err
		}
		tmpl, err := r.GetAddress(20, "template")
		if err != nil {
			return nil, err
		}
		fn, err := r.GetString("func")
		if err != nil {
			return nil, err
		}
		msg, err := r.GetString("msg")
		if err != nil {
			return nil, err
		}
		return &errs.RuntimeError{Kind: kind, Target: addrHex(target), Template: addrHex(tmpl), Func: fn, Msg: msg}, nil
	case errs.FuncInvalidSignature:
		target, err := r.GetAddress(20, "target")
		if err != nil {
			return nil, err
		}
		tmpl, err := r.GetAddress(20, "template")
		if err != nil {
			return nil, err
		}
		fn, err := r.GetString("func")
		if err != nil {
			return nil, err
		}
		return &errs.RuntimeError{Kind: kind, Target: addrHex(target), Template: addrHex(tmpl), Func: fn}, nil
	default:
		return nil, fmt.Errorf("codec: unknown runtime error tag %d", tag)
	}
}

// padAddr20 decodes a hex-encoded 20-byte address string (as produced by
// address.AccountAddress.String()/address.TemplateAddress.String()) back
// into raw bytes for wire encoding.
func padAddr20(hexAddr string) []byte {
	b := make([]byte, 20)
	decoded, err := hex.DecodeString(hexAddr)
	if err != nil || len(decoded) != 20 {
		return b
	}
	copy(b, decoded)
	return b
}

// addrHex hex-encodes a raw 20-byte address read off the wire back into
// the same string form address.AccountAddress.String() produces.
func addrHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
