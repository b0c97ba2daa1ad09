package environment

import "github.com/opensvm/svm/pkg/storage"

// Env bundles the template and account stores the runtime depends on.
type Env struct {
	Templates *TemplateStore
	Accounts  *AccountStore
}

// New builds an Env backed by a single key-value backend shared by both
// stores (distinguished by key prefix).
func New(backend storage.KVBackend) *Env {
	return &Env{
		Templates: NewTemplateStore(backend),
		Accounts:  NewAccountStore(backend),
	}
}
