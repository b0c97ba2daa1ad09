package environment

import (
	"errors"
	"fmt"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/byteio"
	"github.com/opensvm/svm/pkg/storage"
)

const accountPrefix = "acct/"

// Account is the persisted record created by Spawn: a display name and
// the template it was spawned from.
type Account struct {
	Name     string
	Template address.TemplateAddress
}

// AccountStore maps account addresses to their spawn-time record.
type AccountStore struct {
	backend storage.KVBackend
}

// NewAccountStore wraps backend as an AccountStore.
func NewAccountStore(backend storage.KVBackend) *AccountStore {
	return &AccountStore{backend: backend}
}

func encodeAccount(a *Account) []byte {
	w := byteio.NewWriter()
	w.PutString(a.Name)
	w.PutAddress(a.Template[:])
	return w.Bytes()
}

func decodeAccount(b []byte) (*Account, error) {
	r := byteio.NewReader(b)
	name, err := r.GetString("name")
	if err != nil {
		return nil, err
	}
	tmpl, err := r.GetAddress(20, "template")
	if err != nil {
		return nil, err
	}
	a := &Account{Name: name}
	copy(a.Template[:], tmpl)
	return a, nil
}

// Store persists account under addr.
func (s *AccountStore) Store(account *Account, addr address.AccountAddress) error {
	if err := s.backend.Set(append([]byte(accountPrefix), addr[:]...), encodeAccount(account)); err != nil {
		return fmt.Errorf("environment: store account: %w", err)
	}
	return nil
}

// Load returns the account at addr, or (nil, nil) if unknown.
func (s *AccountStore) Load(addr address.AccountAddress) (*Account, error) {
	data, err := s.backend.Get(append([]byte(accountPrefix), addr[:]...))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("environment: load account: %w", err)
	}
	return decodeAccount(data)
}

// ResolveTemplateAddr returns the template address of the account at addr,
// or (zero, nil) if the account is unknown.
func (s *AccountStore) ResolveTemplateAddr(addr address.AccountAddress) (address.TemplateAddress, error) {
	account, err := s.Load(addr)
	if err != nil {
		return address.TemplateAddress{}, err
	}
	if account == nil {
		return address.TemplateAddress{}, nil
	}
	return account.Template, nil
}
