package bluelink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusCached returns the backend's cached status document for a vehicle. The backend
// serves this from its own store without waking the vehicle.
func (a *Account) StatusCached(ctx context.Context, vehicleID string) (*VehicleStatus, error) {
	endpoint := fmt.Sprintf("api/v1/spa/vehicles/%s/status/latest", vehicleID)
	return a.fetchStatus(ctx, endpoint)
}

// StatusLatest polls the vehicle for live status. This wakes the vehicle's telematics
// unit and can take considerably longer than StatusCached; pass a context with an
// appropriate deadline.
func (a *Account) StatusLatest(ctx context.Context, vehicleID string) (*VehicleStatus, error) {
	endpoint := fmt.Sprintf("api/v1/spa/vehicles/%s/status", vehicleID)
	return a.fetchStatus(ctx, endpoint)
}

func (a *Account) fetchStatus(ctx context.Context, endpoint string) (*VehicleStatus, error) {
	reply, err := a.sendAPI(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var info struct {
		StatusInfo json.RawMessage `json:"vehicleStatusInfo"`
	}
	if err := json.Unmarshal(reply.ResMsg, &info); err != nil || len(info.StatusInfo) == 0 {
		return nil, fmt.Errorf("unable to parse status response")
	}
	return ParseVehicleStatus(info.StatusInfo)
}
