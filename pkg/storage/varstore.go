package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/opensvm/svm/pkg/address"
	"github.com/opensvm/svm/pkg/layout"
)

const (
	leafDomain     = 0x00
	internalDomain = 0x01
)

// VarStore is the per-execution, per-account view over persistent
// storage: writes land in an uncommitted overlay until Commit flushes a
// full re-keyed snapshot and returns its content-addressed State, the
// direct generalization of the teacher's ComputeStateRoot/merkleRoot pair
// from "all accounts in a store" down to "all variables of one account".
type VarStore struct {
	backend   KVBackend
	account   address.AccountAddress
	prior     address.State
	layout    *layout.Layout
	overlay   map[uint32][]byte
}

// Layout returns the storage layout this VarStore resolves variable ids
// against.
func (v *VarStore) Layout() *layout.Layout { return v.layout }

// Open returns a VarStore for account rooted at the given prior State,
// resolved against layout.
func Open(backend KVBackend, account address.AccountAddress, prior address.State, l *layout.Layout) *VarStore {
	return &VarStore{
		backend: backend,
		account: account,
		prior:   prior,
		layout:  l,
		overlay: make(map[uint32][]byte),
	}
}

func varKey(account address.AccountAddress, state address.State, id uint32) []byte {
	h := sha256.New()
	h.Write(account[:])
	h.Write(state[:])
	var idBytes [4]byte
	idBytes[0] = byte(id >> 24)
	idBytes[1] = byte(id >> 16)
	idBytes[2] = byte(id >> 8)
	idBytes[3] = byte(id)
	h.Write(idBytes[:])
	return h.Sum(nil)
}

// Write stages bytes for variable id in the uncommitted overlay. The
// length must match the variable's declared width.
func (v *VarStore) Write(id uint32, data []byte) error {
	_, length := v.layout.Resolve(id)
	if uint32(len(data)) != length {
		return fmt.Errorf("storage: write var %d: expected %d bytes got %d", id, length, len(data))
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	v.overlay[id] = cp
	return nil
}

// Read returns the current value of variable id: the overlay's pending
// write if present, else the committed value at the prior State, else a
// zero-filled vector of the variable's declared width.
func (v *VarStore) Read(id uint32) ([]byte, error) {
	if data, ok := v.overlay[id]; ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		return cp, nil
	}
	return v.readCommitted(id, v.prior)
}

func (v *VarStore) readCommitted(id uint32, state address.State) ([]byte, error) {
	_, length := v.layout.Resolve(id)
	data, err := v.backend.Get(varKey(v.account, state, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return make([]byte, length), nil
		}
		return nil, fmt.Errorf("storage: read var %d: %w", id, err)
	}
	return data, nil
}

// Commit flushes the overlay into a full re-keyed snapshot covering every
// variable declared by the layout, and returns the resulting State: the
// root of a domain-separated Merkle tree over the ordered (id, bytes)
// pairs, mirroring the teacher's leaf/internal hash domains
// (0x00-prefixed leaves, 0x01-prefixed internal nodes, last-node
// duplication on odd counts). When every variable is zero-filled, Commit
// writes nothing to the backend and returns ZeroState instead.
func (v *VarStore) Commit() (address.State, error) {
	first := v.layout.FirstID()
	n := v.layout.Len()

	values := make([][]byte, n)
	for i := 0; i < n; i++ {
		id := first + uint32(i)
		if data, ok := v.overlay[id]; ok {
			values[i] = data
			continue
		}
		data, err := v.readCommitted(id, v.prior)
		if err != nil {
			return address.State{}, err
		}
		values[i] = data
	}

	if isAllZero(values) {
		v.prior = address.ZeroState
		v.overlay = make(map[uint32][]byte)
		return address.ZeroState, nil
	}

	leaves := make([][]byte, n)
	for i := 0; i < n; i++ {
		id := first + uint32(i)
		leaves[i] = leafHash(id, values[i])
	}
	root := merkleRoot(leaves)

	var newState address.State
	copy(newState[:], root)

	for i := 0; i < n; i++ {
		id := first + uint32(i)
		if err := v.backend.Set(varKey(v.account, newState, id), values[i]); err != nil {
			return address.State{}, fmt.Errorf("storage: commit var %d: %w", id, err)
		}
	}

	v.prior = newState
	v.overlay = make(map[uint32][]byte)
	return newState, nil
}

func isAllZero(values [][]byte) bool {
	for _, v := range values {
		for _, b := range v {
			if b != 0 {
				return false
			}
		}
	}
	return true
}

func leafHash(id uint32, value []byte) []byte {
	h := sha256.New()
	h.Write([]byte{leafDomain})
	var idBytes [4]byte
	idBytes[0] = byte(id >> 24)
	idBytes[1] = byte(id >> 16)
	idBytes[2] = byte(id >> 8)
	idBytes[3] = byte(id)
	h.Write(idBytes[:])
	h.Write(value)
	return h.Sum(nil)
}

// merkleRoot folds leaves pairwise with a 0x01-domain internal hash,
// duplicating the last node on an odd count, until a single root remains.
func merkleRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		zero := sha256.Sum256(nil)
		return zero[:]
	}
	level := leaves
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			h := sha256.New()
			h.Write([]byte{internalDomain})
			h.Write(left)
			h.Write(right)
			next = append(next, h.Sum(nil))
		}
		level = next
	}
	return level[0]
}
