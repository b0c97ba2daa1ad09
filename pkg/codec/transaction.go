package codec

import (
	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/byteio"
)

// Call is a transaction invoking an exported function on an existing
// account. The wire format carries no verifydata field: calldata follows
// func_name directly, per the resolution recorded in SPEC_FULL.md §11.
type Call struct {
	Version  uint16
	Target   address.AccountAddress
	FuncName string
	Calldata []byte
}

// EncodeCall serializes a Call transaction.
func EncodeCall(c *Call) []byte {
	w := byteio.NewWriter()
	w.PutUint16(c.Version)
	w.PutAddress(c.Target[:])
	w.PutString(c.FuncName)
	w.PutBytes(c.Calldata)
	return w.Bytes()
}

// DecodeCall parses a Call transaction.
func DecodeCall(b []byte) (*Call, error) {
	r := byteio.NewReader(b)
	version, err := r.GetUint16("version")
	if err != nil {
		return nil, err
	}
	target, err := r.GetAddress(20, "target")
	if err != nil {
		return nil, err
	}
	funcName, err := r.GetString("func_name")
	if err != nil {
		return nil, err
	}
	calldata, err := r.GetBytes("calldata")
	if err != nil {
		return nil, err
	}
	var c Call
	c.Version = version
	copy(c.Target[:], target)
	c.FuncName = funcName
	c.Calldata = calldata
	return &c, nil
}
