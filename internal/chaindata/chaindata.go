// Package chaindata keeps the authoritative local view of chain state fed
// by the websocket event stream. Accounts are kept as per-slot versions so
// that updates arriving out of order, or again after a reconnect, converge
// to the same view.
package chaindata

import (
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"chainfeed/internal/model"
)

// AccountVersion is one observed account state at one slot.
type AccountVersion struct {
	Slot    uint64
	Account model.AccountState
}

// SlotInfo tracks what is known about one slot.
type SlotInfo struct {
	Slot   uint64
	Parent *uint64
	Status model.SlotStatus
}

// ChainData is the in-memory chain state store. Safe for concurrent use.
type ChainData struct {
	mu       sync.RWMutex
	slots    map[uint64]*SlotInfo
	accounts map[solana.PublicKey][]AccountVersion

	newestRootedSlot uint64
	bestChainSlot    uint64
}

// New returns an empty store.
func New() *ChainData {
	return &ChainData{
		slots:    make(map[uint64]*SlotInfo),
		accounts: make(map[solana.PublicKey][]AccountVersion),
	}
}

// Apply routes one feed event into the store.
func (c *ChainData) Apply(event model.Event) {
	switch {
	case event.Account != nil:
		c.UpdateAccount(*event.Account)
	case event.Slot != nil:
		c.UpdateSlot(*event.Slot)
	}
}

// UpdateAccount records one account state, keeping versions ordered by
// slot. A second write for the same slot replaces the earlier one.
func (c *ChainData) UpdateAccount(update model.AccountUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	versions := c.accounts[update.Pubkey]
	idx := sort.Search(len(versions), func(i int) bool { return versions[i].Slot >= update.Slot })
	version := AccountVersion{Slot: update.Slot, Account: update.Account}
	if idx < len(versions) && versions[idx].Slot == update.Slot {
		versions[idx] = version
		return
	}
	versions = append(versions, AccountVersion{})
	copy(versions[idx+1:], versions[idx:])
	versions[idx] = version
	c.accounts[update.Pubkey] = versions
}

// UpdateSlot records a slot status claim. A slot's status only ever
// upgrades (processed, confirmed, rooted); a new root prunes everything
// the chain can no longer revise.
func (c *ChainData) UpdateSlot(update model.SlotUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.slots[update.Slot]
	if !ok {
		info = &SlotInfo{Slot: update.Slot, Status: update.Status}
		c.slots[update.Slot] = info
	} else if update.Status > info.Status {
		info.Status = update.Status
	}
	if update.Parent != nil {
		info.Parent = update.Parent
	}

	if update.Slot > c.bestChainSlot {
		c.bestChainSlot = update.Slot
	}
	if update.Status == model.SlotRooted && update.Slot > c.newestRootedSlot {
		c.newestRootedSlot = update.Slot
		c.pruneLocked()
	}
}

// pruneLocked drops slots below the newest root and account versions the
// root made obsolete, keeping the newest at-or-below-root version of each
// account as its baseline.
func (c *ChainData) pruneLocked() {
	for slot := range c.slots {
		if slot < c.newestRootedSlot {
			delete(c.slots, slot)
		}
	}
	for pubkey, versions := range c.accounts {
		keepFrom := 0
		for i, version := range versions {
			if version.Slot <= c.newestRootedSlot {
				keepFrom = i
			}
		}
		if keepFrom > 0 {
			c.accounts[pubkey] = append(versions[:0:0], versions[keepFrom:]...)
		}
	}
}

// Account returns the newest known version of an account.
func (c *ChainData) Account(pubkey solana.PublicKey) (AccountVersion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	versions := c.accounts[pubkey]
	if len(versions) == 0 {
		return AccountVersion{}, false
	}
	return versions[len(versions)-1], true
}

// Slot returns what is known about one slot.
func (c *ChainData) Slot(slot uint64) (SlotInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.slots[slot]
	if !ok {
		return SlotInfo{}, false
	}
	return *info, true
}

// NewestRootedSlot returns the highest slot finalized by consensus.
func (c *ChainData) NewestRootedSlot() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.newestRootedSlot
}

// BestChainSlot returns the highest slot seen in any status.
func (c *ChainData) BestChainSlot() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bestChainSlot
}

// AccountCount returns how many accounts have at least one version.
func (c *ChainData) AccountCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.accounts)
}

// SlotCount returns how many slots are currently tracked.
func (c *ChainData) SlotCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.slots)
}
