package environment

import "github.com/opensvm/svm/pkg/codec"

// ParseDeploy parses a Deploy transaction, returning a ParseError (via
// codec/byteio/errs) without side effects on failure.
func ParseDeploy(b []byte) (*codec.DeployTemplate, error) {
	return codec.DecodeDeploy(b)
}

// ParseSpawn parses a SpawnAccount transaction.
func ParseSpawn(b []byte) (*codec.SpawnAccount, error) {
	return codec.DecodeSpawn(b)
}

// ParseCall parses a Call transaction.
func ParseCall(b []byte) (*codec.Call, error) {
	return codec.DecodeCall(b)
}
