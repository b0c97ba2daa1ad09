package codec

import (
	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/byteio"
)

// SpawnAccount is a transaction creating a new account from a template and
// invoking its constructor.
type SpawnAccount struct {
	Version  uint16
	Template address.TemplateAddress
	Name     string
	CtorName string
	Calldata []byte
}

// EncodeSpawn serializes a SpawnAccount transaction.
func EncodeSpawn(s *SpawnAccount) []byte {
	w := byteio.NewWriter()
	w.PutUint16(s.Version)
	w.PutAddress(s.Template[:])
	w.PutString(s.Name)
	w.PutString(s.CtorName)
	w.PutBytes(s.Calldata)
	return w.Bytes()
}

// DecodeSpawn parses a SpawnAccount transaction.
func DecodeSpawn(b []byte) (*SpawnAccount, error) {
	r := byteio.NewReader(b)
	version, err := r.GetUint16("version")
	if err != nil {
		return nil, err
	}
	template, err := r.GetAddress(20, "template")
	if err != nil {
		return nil, err
	}
	name, err := r.GetString("name")
	if err != nil {
		return nil, err
	}
	ctorName, err := r.GetString("ctor_name")
	if err != nil {
		return nil, err
	}
	calldata, err := r.GetBytes("calldata")
	if err != nil {
		return nil, err
	}
	var s SpawnAccount
	s.Version = version
	copy(s.Template[:], template)
	s.Name = name
	s.CtorName = ctorName
	s.Calldata = calldata
	return &s, nil
}

// DeployTemplate is the top-level Deploy transaction payload: the template
// itself, to be validated, addressed, and persisted by the runtime.
type DeployTemplate struct {
	Version  uint16
	Template *Template
}

// EncodeDeploy serializes a DeployTemplate transaction.
func EncodeDeploy(d *DeployTemplate) ([]byte, error) {
	tmplBytes, err := EncodeTemplate(d.Template)
	if err != nil {
		return nil, err
	}
	w := byteio.NewWriter()
	w.PutUint16(d.Version)
	w.PutRaw(tmplBytes)
	return w.Bytes(), nil
}

// DecodeDeploy parses a DeployTemplate transaction.
func DecodeDeploy(b []byte) (*DeployTemplate, error) {
	r := byteio.NewReader(b)
	version, err := r.GetUint16("version")
	if err != nil {
		return nil, err
	}
	rest, err := r.GetRaw(r.Remaining(), "template")
	if err != nil {
		return nil, err
	}
	tmpl, err := DecodeTemplate(rest)
	if err != nil {
		return nil, err
	}
	return &DeployTemplate{Version: version, Template: tmpl}, nil
}
