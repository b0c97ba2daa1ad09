package codec

import (
	"bytes"
	"testing"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/errs"
)

func TestCallRoundTrip(t *testing.T) {
	var target address.AccountAddress
	target[0] = 0xaa
	want := &Call{Version: 1, Target: target, FuncName: "transfer", Calldata: []byte{1, 2, 3}}
	got, err := DecodeCall(EncodeCall(want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != want.Version || got.Target != want.Target || got.FuncName != want.FuncName || !bytes.Equal(got.Calldata, want.Calldata) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestSpawnRoundTrip(t *testing.T) {
	var tmpl address.TemplateAddress
	tmpl[0] = 0xbb
	want := &SpawnAccount{Version: 1, Template: tmpl, Name: "@account", CtorName: "initialize", Calldata: []byte{0x10, 0x20, 0x30}}
	got, err := DecodeSpawn(EncodeSpawn(want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != want.Version || got.Template != want.Template || got.Name != want.Name || got.CtorName != want.CtorName || !bytes.Equal(got.Calldata, want.Calldata) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestTemplateEnvelopeRoundTrip(t *testing.T) {
	code := EncodeCodeSection(&CodeSection{GasMode: GasModeFixed, Flags: 0, CodeVersion: 2, Wasm: []byte{0xc0, 0xde}})
	data, err := EncodeDataSection(&DataSection{FirstID: 0, Widths: []uint32{1, 3}})
	if err != nil {
		t.Fatalf("encode data: %v", err)
	}
	ctors, err := EncodeCtorsSection(&CtorsSection{Names: []string{"init", "start"}})
	if err != nil {
		t.Fatalf("encode ctors: %v", err)
	}
	header := EncodeHeaderSection(&HeaderSection{Name: "My Template", Description: "A few words", SvmVersion: 1, CodeVersion: 2})

	want := &Template{Sections: []Section{
		{Kind: SectionCode, Payload: code},
		{Kind: SectionData, Payload: data},
		{Kind: SectionCtors, Payload: ctors},
		{Kind: SectionHeader, Payload: header},
	}}

	encoded, err := EncodeTemplate(want)
	if err != nil {
		t.Fatalf("encode template: %v", err)
	}
	got, err := DecodeTemplate(encoded)
	if err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if len(got.Sections) != len(want.Sections) {
		t.Fatalf("expected %d sections got %d", len(want.Sections), len(got.Sections))
	}

	codeSec, err := DecodeCodeSection(got.Section(SectionCode).Payload)
	if err != nil {
		t.Fatalf("decode code section: %v", err)
	}
	if codeSec.CodeVersion != 2 || !bytes.Equal(codeSec.Wasm, []byte{0xc0, 0xde}) {
		t.Fatalf("code section mismatch: %+v", codeSec)
	}

	dataSec, err := DecodeDataSection(got.Section(SectionData).Payload)
	if err != nil {
		t.Fatalf("decode data section: %v", err)
	}
	if len(dataSec.Widths) != 2 || dataSec.Widths[0] != 1 || dataSec.Widths[1] != 3 {
		t.Fatalf("data section mismatch: %+v", dataSec)
	}

	ctorsSec, err := DecodeCtorsSection(got.Section(SectionCtors).Payload)
	if err != nil {
		t.Fatalf("decode ctors section: %v", err)
	}
	if !ctorsSec.Contains("init") || !ctorsSec.Contains("start") || ctorsSec.Contains("other") {
		t.Fatalf("ctors section mismatch: %+v", ctorsSec)
	}
}

func TestTemplateRejectsDuplicateSectionKind(t *testing.T) {
	tmpl := &Template{Sections: []Section{
		{Kind: SectionCode, Payload: []byte{1}},
		{Kind: SectionCode, Payload: []byte{2}},
	}}
	if _, err := EncodeTemplate(tmpl); err == nil {
		t.Fatalf("expected error for duplicate section kind")
	}
}

func TestSectionPreviewSizeMismatchRejected(t *testing.T) {
	tmpl := &Template{Sections: []Section{{Kind: SectionCode, Payload: []byte{1, 2, 3}}}}
	encoded, err := EncodeTemplate(tmpl)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Corrupt the declared size (first, most significant byte of the
	// size field) so it disagrees with the actual trailing payload.
	encoded[3] = 0xff
	if _, err := DecodeTemplate(encoded); err == nil {
		t.Fatalf("expected preview/payload size mismatch to be rejected")
	}
}

func TestDeploySectionRoundTrip(t *testing.T) {
	var principal address.AccountAddress
	principal[1] = 1
	var tmpl address.TemplateAddress
	tmpl[2] = 2
	want := &DeploySection{Layer: 7, Principal: principal, Template: tmpl}
	want.TxID[0] = 0xff

	got, err := DecodeDeploySection(EncodeDeploySection(want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Layer != want.Layer || got.Principal != want.Principal || got.Template != want.Template || got.TxID != want.TxID {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestReceiptSuccessRoundTrip(t *testing.T) {
	var addr address.AccountAddress
	addr[0] = 5
	var state address.State
	state[0] = 9
	want := &Receipt{
		Type:        ReceiptSpawn,
		Version:     1,
		Success:     true,
		GasUsed:     42,
		Logs:        [][]byte{[]byte("hello"), []byte("world")},
		AccountAddr: addr,
		InitState:   state,
		Returndata:  []byte{1, 2},
	}
	encoded, err := EncodeReceipt(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeReceipt(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.GasUsed != want.GasUsed || got.AccountAddr != want.AccountAddr || got.InitState != want.InitState {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
	if len(got.Logs) != 2 || string(got.Logs[0]) != "hello" || string(got.Logs[1]) != "world" {
		t.Fatalf("logs mismatch: %+v", got.Logs)
	}
}

func TestReceiptFailureRoundTrip(t *testing.T) {
	var target address.AccountAddress
	target[0] = 3
	want := &Receipt{
		Type:    ReceiptCall,
		Version: 1,
		Success: false,
		Err:     &errs.RuntimeError{Kind: errs.AccountNotFound, Target: target.String()},
		Logs:    nil,
	}
	encoded, err := EncodeReceipt(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeReceipt(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Success {
		t.Fatalf("expected failure receipt")
	}
	re, ok := got.Err.(*errs.RuntimeError)
	if !ok || re.Kind != errs.AccountNotFound || re.Target != target.String() {
		t.Fatalf("unexpected error: %+v", got.Err)
	}
}

func TestOOGReceiptHasNoAddressFields(t *testing.T) {
	want := &Receipt{Type: ReceiptDeploy, Version: 1, Success: false, Err: &errs.RuntimeError{Kind: errs.OOG}}
	encoded, err := EncodeReceipt(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// type(1) + version(2) + success(1) + error tag(1) + log count(2):
	// no address bytes follow the OOG tag.
	if len(encoded) != 7 {
		t.Fatalf("expected 7-byte OOG receipt, got %d bytes", len(encoded))
	}
	got, err := DecodeReceipt(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	re, ok := got.Err.(*errs.RuntimeError)
	if !ok || re.Kind != errs.OOG {
		t.Fatalf("expected OOG error, got %+v", got.Err)
	}
}
