// Package codec implements the platform's wire format: Deploy/Spawn/Call
// transactions, Receipts, and the multi-section Template envelope,
// generalizing the teacher's per-type Marshal/Unmarshal organization from
// protobuf framing onto the byteio primitives.
package codec

import (
	"fmt"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/byteio"
)

// SectionKind enumerates the recognized Template section kinds.
type SectionKind uint8

const (
	SectionCode SectionKind = iota + 1
	SectionData
	SectionCtors
	SectionHeader
	SectionApi
	SectionSchema
	SectionDeploy
)

func (k SectionKind) String() string {
	switch k {
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	case SectionCtors:
		return "ctors"
	case SectionHeader:
		return "header"
	case SectionApi:
		return "api"
	case SectionSchema:
		return "schema"
	case SectionDeploy:
		return "deploy"
	default:
		return "unknown"
	}
}

// Section is a raw, undecoded envelope entry: a kind tag plus its exact
// payload bytes, as framed by the envelope's section_count/preview table.
type Section struct {
	Kind    SectionKind
	Payload []byte
}

// Template is an ordered collection of sections. At most one section of
// each kind may appear.
type Template struct {
	Sections []Section
}

// Section returns the first section of the given kind, or nil if absent.
func (t *Template) Section(kind SectionKind) *Section {
	for i := range t.Sections {
		if t.Sections[i].Kind == kind {
			return &t.Sections[i]
		}
	}
	return nil
}

// EncodeTemplate serializes a Template into its envelope wire format:
// section_count ‖ [kind ‖ byte_size]* ‖ [payload]*.
func EncodeTemplate(t *Template) ([]byte, error) {
	if len(t.Sections) > 0xffff {
		return nil, fmt.Errorf("codec: template has too many sections")
	}
	seen := make(map[SectionKind]bool, len(t.Sections))
	for _, s := range t.Sections {
		if seen[s.Kind] {
			return nil, fmt.Errorf("codec: duplicate section kind %s", s.Kind)
		}
		seen[s.Kind] = true
	}

	w := byteio.NewWriter()
	w.PutUint16(uint16(len(t.Sections)))
	for _, s := range t.Sections {
		w.PutUint8(uint8(s.Kind))
		w.PutUint32(uint32(len(s.Payload)))
	}
	for _, s := range t.Sections {
		w.PutRaw(s.Payload)
	}
	return w.Bytes(), nil
}

// DecodeTemplate parses a Template envelope, validating that the preview
// table's declared sizes exactly account for the trailing payload bytes.
func DecodeTemplate(b []byte) (*Template, error) {
	r := byteio.NewReader(b)
	count, err := r.GetUint16("section_count")
	if err != nil {
		return nil, err
	}

	type preview struct {
		kind SectionKind
		size uint32
	}
	previews := make([]preview, count)
	var total uint64
	for i := range previews {
		kind, err := r.GetUint8("section_kind")
		if err != nil {
			return nil, err
		}
		size, err := r.GetUint32("section_size")
		if err != nil {
			return nil, err
		}
		previews[i] = preview{kind: SectionKind(kind), size: size}
		total += uint64(size)
	}

	if uint64(r.Remaining()) != total {
		return nil, fmt.Errorf("codec: section preview sizes (%d) do not match remaining payload (%d)", total, r.Remaining())
	}

	sections := make([]Section, count)
	seen := make(map[SectionKind]bool, count)
	for i, p := range previews {
		if seen[p.kind] {
			return nil, fmt.Errorf("codec: duplicate section kind %s", p.kind)
		}
		seen[p.kind] = true
		payload, err := r.GetRaw(int(p.size), "section_payload")
		if err != nil {
			return nil, err
		}
		sections[i] = Section{Kind: p.kind, Payload: payload}
	}
	return &Template{Sections: sections}, nil
}

// GasMode selects how gas is charged for a template's functions.
type GasMode uint8

const (
	GasModeFixed GasMode = iota
	GasModeMetering
)

// CodeSection is the semantic decoding of a SectionCode payload.
type CodeSection struct {
	GasMode     GasMode
	Flags       uint8
	CodeVersion uint16
	Wasm        []byte
}

// EncodeCodeSection builds the raw payload for a Code section.
func EncodeCodeSection(c *CodeSection) []byte {
	w := byteio.NewWriter()
	w.PutUint8(uint8(c.GasMode))
	w.PutUint8(c.Flags)
	w.PutUint16(c.CodeVersion)
	w.PutRaw(c.Wasm)
	return w.Bytes()
}

// DecodeCodeSection parses a Code section payload.
func DecodeCodeSection(payload []byte) (*CodeSection, error) {
	r := byteio.NewReader(payload)
	mode, err := r.GetUint8("gas_mode")
	if err != nil {
		return nil, err
	}
	flags, err := r.GetUint8("flags")
	if err != nil {
		return nil, err
	}
	version, err := r.GetUint16("code_version")
	if err != nil {
		return nil, err
	}
	wasm, err := r.GetRaw(r.Remaining(), "wasm")
	if err != nil {
		return nil, err
	}
	return &CodeSection{GasMode: GasMode(mode), Flags: flags, CodeVersion: version, Wasm: wasm}, nil
}

// DataSection is the semantic decoding of a SectionData payload: the
// template's fixed storage layout.
type DataSection struct {
	FirstID uint32
	Widths  []uint32
}

// EncodeDataSection builds the raw payload for a Data section.
func EncodeDataSection(d *DataSection) ([]byte, error) {
	if len(d.Widths) > 0xffff {
		return nil, fmt.Errorf("codec: too many layout variables")
	}
	w := byteio.NewWriter()
	w.PutUint32(d.FirstID)
	w.PutUint16(uint16(len(d.Widths)))
	for _, width := range d.Widths {
		w.PutUint32(width)
	}
	return w.Bytes(), nil
}

// DecodeDataSection parses a Data section payload.
func DecodeDataSection(payload []byte) (*DataSection, error) {
	r := byteio.NewReader(payload)
	firstID, err := r.GetUint32("first_id")
	if err != nil {
		return nil, err
	}
	count, err := r.GetUint16("var_count")
	if err != nil {
		return nil, err
	}
	widths := make([]uint32, count)
	for i := range widths {
		w, err := r.GetUint32("var_width")
		if err != nil {
			return nil, err
		}
		widths[i] = w
	}
	return &DataSection{FirstID: firstID, Widths: widths}, nil
}

// CtorsSection lists the exported constructor function names.
type CtorsSection struct {
	Names []string
}

// EncodeCtorsSection builds the raw payload for a Ctors section.
func EncodeCtorsSection(c *CtorsSection) ([]byte, error) {
	if len(c.Names) > 0xffff {
		return nil, fmt.Errorf("codec: too many constructors")
	}
	w := byteio.NewWriter()
	w.PutUint16(uint16(len(c.Names)))
	for _, name := range c.Names {
		w.PutString(name)
	}
	return w.Bytes(), nil
}

// DecodeCtorsSection parses a Ctors section payload.
func DecodeCtorsSection(payload []byte) (*CtorsSection, error) {
	r := byteio.NewReader(payload)
	count, err := r.GetUint16("ctor_count")
	if err != nil {
		return nil, err
	}
	names := make([]string, count)
	for i := range names {
		n, err := r.GetString("ctor_name")
		if err != nil {
			return nil, err
		}
		names[i] = n
	}
	return &CtorsSection{Names: names}, nil
}

// Contains reports whether name is among the declared constructor names.
func (c *CtorsSection) Contains(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// HeaderSection carries free-form display metadata the runtime does not
// interpret beyond preserving it across encode/decode.
type HeaderSection struct {
	Name        string
	Description string
	SvmVersion  uint16
	CodeVersion uint16
}

// EncodeHeaderSection builds the raw payload for a Header section.
func EncodeHeaderSection(h *HeaderSection) []byte {
	w := byteio.NewWriter()
	w.PutString(h.Name)
	w.PutString(h.Description)
	w.PutUint16(h.SvmVersion)
	w.PutUint16(h.CodeVersion)
	return w.Bytes()
}

// DecodeHeaderSection parses a Header section payload.
func DecodeHeaderSection(payload []byte) (*HeaderSection, error) {
	r := byteio.NewReader(payload)
	name, err := r.GetString("name")
	if err != nil {
		return nil, err
	}
	desc, err := r.GetString("desc")
	if err != nil {
		return nil, err
	}
	svmVersion, err := r.GetUint16("svm_version")
	if err != nil {
		return nil, err
	}
	codeVersion, err := r.GetUint16("code_version")
	if err != nil {
		return nil, err
	}
	return &HeaderSection{Name: name, Description: desc, SvmVersion: svmVersion, CodeVersion: codeVersion}, nil
}

// DeploySection records the provenance of a deployed template, populated
// by the runtime at deploy time. Both 20-byte address fields are written
// through the same WriteAddress-style helper (byteio.PutAddress), per the
// canonical resolution of the dual-encoding ambiguity in SPEC_FULL.md §11.
type DeploySection struct {
	TxID      [32]byte
	Layer     uint64
	Principal address.AccountAddress
	Template  address.TemplateAddress
}

// EncodeDeploySection builds the raw payload for a Deploy section.
func EncodeDeploySection(d *DeploySection) []byte {
	w := byteio.NewWriter()
	w.PutRaw(d.TxID[:])
	w.PutUint64(d.Layer)
	w.PutAddress(d.Principal[:])
	w.PutAddress(d.Template[:])
	return w.Bytes()
}

// DecodeDeploySection parses a Deploy section payload.
func DecodeDeploySection(payload []byte) (*DeploySection, error) {
	r := byteio.NewReader(payload)
	txID, err := r.GetRaw(32, "tx_id")
	if err != nil {
		return nil, err
	}
	layer, err := r.GetUint64("layer")
	if err != nil {
		return nil, err
	}
	principal, err := r.GetAddress(20, "principal")
	if err != nil {
		return nil, err
	}
	template, err := r.GetAddress(20, "template")
	if err != nil {
		return nil, err
	}
	var d DeploySection
	copy(d.TxID[:], txID)
	d.Layer = layer
	copy(d.Principal[:], principal)
	copy(d.Template[:], template)
	return &d, nil
}
