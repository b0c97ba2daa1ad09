// Package address defines the fixed-size identifier types used throughout
// the platform: account and template addresses, template content hashes,
// and storage state roots.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AccountAddress identifies a spawned account. Distinct from TemplateAddress
// so the two can never be assigned to each other by accident.
type AccountAddress [20]byte

// TemplateAddress identifies a deployed template.
type TemplateAddress [20]byte

// TemplateHash is the content-addressed digest of a serialized template.
type TemplateHash [32]byte

// State is the root commitment of a storage snapshot. The zero value is the
// well-defined empty pre-image.
type State [32]byte

// ZeroState is the canonical empty storage commitment.
var ZeroState = State{}

// String renders a as uppercase hex, per the platform's display convention.
func (a AccountAddress) String() string {
	return strings.ToUpper(hex.EncodeToString(a[:]))
}

func (a AccountAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccountAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("account address: %w", err)
	}
	if len(b) != len(a) {
		return fmt.Errorf("account address: want %d bytes got %d", len(a), len(b))
	}
	copy(a[:], b)
	return nil
}

// IsZero reports whether a is the all-zero address.
func (a AccountAddress) IsZero() bool { return a == AccountAddress{} }

// String renders t as uppercase hex, per the platform's display convention.
func (t TemplateAddress) String() string {
	return strings.ToUpper(hex.EncodeToString(t[:]))
}

func (t TemplateAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TemplateAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("template address: %w", err)
	}
	if len(b) != len(t) {
		return fmt.Errorf("template address: want %d bytes got %d", len(t), len(b))
	}
	copy(t[:], b)
	return nil
}

// IsZero reports whether t is the all-zero address.
func (t TemplateAddress) IsZero() bool { return t == TemplateAddress{} }

// String renders h as uppercase hex, per the platform's display convention.
func (h TemplateHash) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// String renders s as uppercase hex, per the platform's display convention.
func (s State) String() string {
	return strings.ToUpper(hex.EncodeToString(s[:]))
}

// IsZero reports whether s is the zero state.
func (s State) IsZero() bool { return s == ZeroState }

// truncate20 returns the first 20 bytes of a SHA-256 digest, the shared
// derivation primitive for both address flavors.
func truncate20(b []byte) [20]byte {
	var out [20]byte
	sum := sha256.Sum256(b)
	copy(out[:], sum[:20])
	return out
}

// DeriveTemplateAddress computes the address of a template from its
// serialized form.
func DeriveTemplateAddress(serializedTemplate []byte) TemplateAddress {
	return TemplateAddress(truncate20(serializedTemplate))
}

// DeriveAccountAddress computes the address of a spawned account from its
// template, name, and constructor calldata.
func DeriveAccountAddress(template TemplateAddress, name string, calldata []byte) AccountAddress {
	buf := make([]byte, 0, len(template)+len(name)+len(calldata))
	buf = append(buf, template[:]...)
	buf = append(buf, name...)
	buf = append(buf, calldata...)
	return AccountAddress(truncate20(buf))
}

// HashTemplate returns the content hash of a serialized template, used as
// the key under which the template body is stored.
func HashTemplate(serializedTemplate []byte) TemplateHash {
	return TemplateHash(sha256.Sum256(serializedTemplate))
}
