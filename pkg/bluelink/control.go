package bluelink

import (
	"context"
	"fmt"
	"net/http"
)

// ClimateOptions describe a climate-control start request. Temperature is in °C; the
// façade validates its range before it reaches this package.
type ClimateOptions struct {
	Temperature float64
	Defrost     bool
	Climate     bool
	Heating     bool
}

// tempCode encodes a cabin temperature the way the backend expects: half-degree steps
// from 14°C, rendered as a two-digit hex value with an "H" suffix.
func tempCode(celsius float64) string {
	steps := int((celsius - 14.0) * 2)
	if steps < 0 {
		steps = 0
	}
	return fmt.Sprintf("%02XH", steps)
}

func (a *Account) control(ctx context.Context, vehicleID, facility string, payload map[string]interface{}) (string, error) {
	payload["deviceId"] = a.deviceID
	endpoint := fmt.Sprintf("api/v1/spa/vehicles/%s/control/%s", vehicleID, facility)
	reply, err := a.sendAPI(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}
	return reply.MsgID, nil
}

// LockDoors locks the vehicle. Returns the backend's action id.
func (a *Account) LockDoors(ctx context.Context, vehicleID string) (string, error) {
	return a.control(ctx, vehicleID, "door", map[string]interface{}{"action": "close"})
}

// UnlockDoors unlocks the vehicle. Returns the backend's action id.
func (a *Account) UnlockDoors(ctx context.Context, vehicleID string) (string, error) {
	return a.control(ctx, vehicleID, "door", map[string]interface{}{"action": "open"})
}

// StartClimate starts climate preconditioning.
func (a *Account) StartClimate(ctx context.Context, vehicleID string, opts ClimateOptions) (string, error) {
	heating := 0
	if opts.Heating {
		heating = 1
	}
	payload := map[string]interface{}{
		"action":   "start",
		"hvacType": 0,
		"options": map[string]interface{}{
			"defrost":  opts.Defrost,
			"heating1": heating,
		},
		"tempCode": tempCode(opts.Temperature),
		"unit":     "C",
	}
	if !opts.Climate {
		// Heat-only request: leave HVAC off, drive only defrost/steering heaters.
		payload["hvacType"] = 1
	}
	return a.control(ctx, vehicleID, "temperature", payload)
}

// StopClimate stops climate preconditioning.
func (a *Account) StopClimate(ctx context.Context, vehicleID string) (string, error) {
	return a.control(ctx, vehicleID, "temperature", map[string]interface{}{"action": "stop"})
}

// StartCharge starts charging. The backend rejects this for non-plugged-in vehicles.
func (a *Account) StartCharge(ctx context.Context, vehicleID string) (string, error) {
	return a.control(ctx, vehicleID, "charge", map[string]interface{}{"action": "start"})
}

// StopCharge stops an active charging session.
func (a *Account) StopCharge(ctx context.Context, vehicleID string) (string, error) {
	return a.control(ctx, vehicleID, "charge", map[string]interface{}{"action": "stop"})
}
