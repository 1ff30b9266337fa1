package data

import (
	"strings"
	"sync"

	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/gorm"
)

var (
	networksCache map[string]types.Network
	networksMu    sync.RWMutex
)

// LoadNetworks caches the supported networks keyed by lowercase name.
func LoadNetworks(db *gorm.DB) error {
	var nets []types.Network
	if err := db.Find(&nets).Error; err != nil {
		return err
	}

	networksMu.Lock()
	defer networksMu.Unlock()

	networksCache = make(map[string]types.Network, len(nets))
	for _, n := range nets {
		networksCache[strings.ToLower(n.Name)] = n
	}

	return nil
}

// GetNetwork resolves a network by name. ok is false for unknown networks.
func GetNetwork(name string) (types.Network, bool) {
	networksMu.RLock()
	defer networksMu.RUnlock()
	n, ok := networksCache[strings.ToLower(name)]
	return n, ok
}

// ActiveRPCs returns the active RPC endpoints for a network at a location.
func ActiveRPCs(db *gorm.DB, networkID uint8, location string) ([]types.NetworkRPC, error) {
	var rpcs []types.NetworkRPC
	err := db.Where("network_id = ? AND location = ? AND active = ?", networkID, location, true).Find(&rpcs).Error
	return rpcs, err
}
