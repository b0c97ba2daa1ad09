// Package environment wraps the template and account stores plus address
// derivation and message parsing, grounded on the teacher's pebble-backed
// pkg/state.Store generalized from a single account/contract key space to
// the platform's template/account/variable key space.
package environment

import (
	"errors"
	"fmt"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/codec"
	"github.com/opensvm/svm/pkg/storage"
)

const (
	templateAddrPrefix = "tmpl/addr/" // addr -> hash
	templateHashPrefix = "tmpl/hash/" // hash -> serialized template
)

// TemplateStore is the content-addressed template registry: an address
// indirection over hash-keyed bodies, so identical templates deployed
// twice share one stored body.
type TemplateStore struct {
	backend storage.KVBackend
}

// NewTemplateStore wraps backend as a TemplateStore.
func NewTemplateStore(backend storage.KVBackend) *TemplateStore {
	return &TemplateStore{backend: backend}
}

// Store persists addr -> hash and hash -> serialized(template). The
// second write is idempotent: storing the same hash twice is a no-op
// beyond re-writing identical bytes.
func (s *TemplateStore) Store(tmpl *codec.Template, addr address.TemplateAddress, hash address.TemplateHash) error {
	serialized, err := codec.EncodeTemplate(tmpl)
	if err != nil {
		return fmt.Errorf("environment: encode template: %w", err)
	}
	if err := s.backend.Set(append([]byte(templateAddrPrefix), addr[:]...), hash[:]); err != nil {
		return fmt.Errorf("environment: store template addr: %w", err)
	}
	if err := s.backend.Set(append([]byte(templateHashPrefix), hash[:]...), serialized); err != nil {
		return fmt.Errorf("environment: store template body: %w", err)
	}
	return nil
}

// Load resolves addr to its stored template, or returns (nil, nil) if
// unknown.
func (s *TemplateStore) Load(addr address.TemplateAddress) (*codec.Template, error) {
	hashBytes, err := s.backend.Get(append([]byte(templateAddrPrefix), addr[:]...))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("environment: resolve template addr: %w", err)
	}
	serialized, err := s.backend.Get(append([]byte(templateHashPrefix), hashBytes...))
	if err != nil {
		return nil, fmt.Errorf("environment: load template body: %w", err)
	}
	tmpl, err := codec.DecodeTemplate(serialized)
	if err != nil {
		return nil, fmt.Errorf("environment: decode template body: %w", err)
	}
	return tmpl, nil
}
