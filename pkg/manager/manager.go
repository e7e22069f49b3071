// Package manager maintains an authenticated Bluelink session and a cached view of the
// account's vehicles. It is the object the HTTP façade and the CLI operate on.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bluelink-community/vehicle-connect/internal/log"
	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
	"github.com/bluelink-community/vehicle-connect/pkg/cache"
)

// DefaultCacheTTL is how long a cached status read is served without a backend round
// trip. The backend itself refreshes its cached view on a similar interval.
const DefaultCacheTTL = 5 * time.Minute

// Manager tracks the vehicles registered to an account and their last known status.
//
// All methods are safe for concurrent use. Control commands are guarded per vehicle: a
// command issued while another is still pending for the same vehicle fails with
// [bluelink.ErrDuplicateRequest] instead of being queued, mirroring the backend's own
// duplicate-request rejection.
type Manager struct {
	CacheTTL time.Duration

	account  *bluelink.Account
	statuses *cache.StatusCache

	mu       sync.Mutex
	vehicles map[string]*bluelink.Vehicle // keyed by backend vehicle id
	inflight map[string]string            // vehicle id -> pending command name
}

// New returns a Manager for account. The statuses cache may be pre-populated (e.g.
// imported from disk); passing nil creates an empty unbounded cache.
func New(account *bluelink.Account, statuses *cache.StatusCache) *Manager {
	if statuses == nil {
		statuses = cache.New(0)
	}
	return &Manager{
		CacheTTL: DefaultCacheTTL,
		account:  account,
		statuses: statuses,
		vehicles: make(map[string]*bluelink.Vehicle),
		inflight: make(map[string]string),
	}
}

// StatusCache exposes the underlying cache for export on shutdown.
func (m *Manager) StatusCache() *cache.StatusCache {
	return m.statuses
}

// Login performs the initial authentication.
func (m *Manager) Login(ctx context.Context) error {
	return m.account.Login(ctx)
}

// CheckAndRefreshToken renews the session if the access token is close to expiry.
func (m *Manager) CheckAndRefreshToken(ctx context.Context) error {
	return m.account.CheckAndRefreshToken(ctx)
}

// loadVehicles fetches the account's vehicle listing if it hasn't been fetched yet.
func (m *Manager) loadVehicles(ctx context.Context) error {
	m.mu.Lock()
	loaded := len(m.vehicles) > 0
	m.mu.Unlock()
	if loaded {
		return nil
	}

	descriptions, err := m.account.Vehicles(ctx)
	if err != nil {
		return fmt.Errorf("unable to list vehicles: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, desc := range descriptions {
		if _, ok := m.vehicles[desc.VehicleID]; ok {
			continue
		}
		v := &bluelink.Vehicle{VehicleDescription: desc}
		if entry, ok := m.statuses.Get(desc.VIN); ok {
			v.Status = entry.Status
			v.UpdatedAt = entry.UpdatedAt
		}
		m.vehicles[desc.VehicleID] = v
		log.Info("Found vehicle %s (%s)", v.Name(), desc.VIN)
	}
	return nil
}

// UpdateAllVehiclesWithCachedState refreshes every vehicle from the backend's cached
// status store. Vehicles whose cache entry is younger than CacheTTL are skipped.
func (m *Manager) UpdateAllVehiclesWithCachedState(ctx context.Context) error {
	if err := m.loadVehicles(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	vehicles := make([]*bluelink.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		vehicles = append(vehicles, v)
	}
	m.mu.Unlock()

	for _, v := range vehicles {
		if m.statuses.Fresh(v.VIN, m.CacheTTL) {
			log.Debug("Cached status for %s is fresh, skipping fetch", v.VIN)
			continue
		}
		status, err := m.account.StatusCached(ctx, v.VehicleID)
		if err != nil {
			return fmt.Errorf("cached status update for %s: %w", v.VIN, err)
		}
		m.storeStatus(v, status)
	}
	return nil
}

// UpdateVehicleWithLatestState polls the vehicle identified by vin for live status,
// bypassing both the local cache and the backend's.
func (m *Manager) UpdateVehicleWithLatestState(ctx context.Context, vin string) error {
	if err := m.loadVehicles(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	v, err := m.findLocked(vin)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	status, err := m.account.StatusLatest(ctx, v.VehicleID)
	if err != nil {
		return fmt.Errorf("live status update for %s: %w", vin, err)
	}
	m.storeStatus(v, status)
	return nil
}

func (m *Manager) storeStatus(v *bluelink.Vehicle, status *bluelink.VehicleStatus) {
	m.mu.Lock()
	v.Status = status
	v.UpdatedAt = time.Now()
	m.mu.Unlock()
	m.statuses.Update(v.VIN, status)
}

// findLocked returns the live vehicle record for vin. Callers must hold m.mu; the
// returned pointer's Status and UpdatedAt fields may only be touched under the lock.
func (m *Manager) findLocked(vin string) (*bluelink.Vehicle, error) {
	for _, v := range m.vehicles {
		if v.VIN == vin {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", bluelink.ErrVehicleNotFound, vin)
}

// GetVehicle returns a snapshot of the vehicle with the given VIN, safe to read while
// concurrent updates land. The listing must have been loaded by a previous update call.
func (m *Manager) GetVehicle(vin string) (*bluelink.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.findLocked(vin)
	if err != nil {
		return nil, err
	}
	snapshot := *v
	return &snapshot, nil
}

// Vehicles returns snapshots of the known vehicles.
func (m *Manager) Vehicles() []*bluelink.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicles := make([]*bluelink.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		snapshot := *v
		vehicles = append(vehicles, &snapshot)
	}
	return vehicles
}

// beginCommand claims the per-vehicle command slot.
func (m *Manager) beginCommand(vehicleID, command string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pending, ok := m.inflight[vehicleID]; ok {
		log.Warning("Rejecting %s for vehicle %s: %s still pending", command, vehicleID, pending)
		return bluelink.ErrDuplicateRequest
	}
	m.inflight[vehicleID] = command
	return nil
}

func (m *Manager) endCommand(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, vehicleID)
}

// runCommand implements the shared control-command flow: refresh the token, resolve the
// vehicle, claim the command slot, and invoke the backend call.
func (m *Manager) runCommand(ctx context.Context, vin, command string, call func(context.Context, string) (string, error)) (string, error) {
	if err := m.CheckAndRefreshToken(ctx); err != nil {
		return "", err
	}
	if err := m.loadVehicles(ctx); err != nil {
		return "", err
	}
	v, err := m.GetVehicle(vin)
	if err != nil {
		return "", err
	}
	if err := m.beginCommand(v.VehicleID, command); err != nil {
		return "", err
	}
	defer m.endCommand(v.VehicleID)

	log.Info("Executing %s on %s", command, vin)
	return call(ctx, v.VehicleID)
}

// Lock locks the vehicle's doors and returns the backend action id.
func (m *Manager) Lock(ctx context.Context, vin string) (string, error) {
	return m.runCommand(ctx, vin, "lock", m.account.LockDoors)
}

// Unlock unlocks the vehicle's doors and returns the backend action id.
func (m *Manager) Unlock(ctx context.Context, vin string) (string, error) {
	return m.runCommand(ctx, vin, "unlock", m.account.UnlockDoors)
}

// StartClimate starts climate preconditioning.
func (m *Manager) StartClimate(ctx context.Context, vin string, opts bluelink.ClimateOptions) (string, error) {
	return m.runCommand(ctx, vin, "start_climate", func(ctx context.Context, id string) (string, error) {
		return m.account.StartClimate(ctx, id, opts)
	})
}

// StopClimate stops climate preconditioning.
func (m *Manager) StopClimate(ctx context.Context, vin string) (string, error) {
	return m.runCommand(ctx, vin, "stop_climate", m.account.StopClimate)
}

// StartCharge starts charging.
func (m *Manager) StartCharge(ctx context.Context, vin string) (string, error) {
	return m.runCommand(ctx, vin, "start_charge", m.account.StartCharge)
}

// StopCharge stops charging.
func (m *Manager) StopCharge(ctx context.Context, vin string) (string, error) {
	return m.runCommand(ctx, vin, "stop_charge", m.account.StopCharge)
}
