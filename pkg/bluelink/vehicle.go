package bluelink

import (
	"encoding/json"
	"time"
)

// VehicleDescription identifies a vehicle registered to an account.
type VehicleDescription struct {
	VehicleID string `json:"vehicleId"`
	VIN       string `json:"vin"`
	Nickname  string `json:"nickname"`
	Model     string `json:"vehicleName"`
	Type      string `json:"type"`
}

// backendTimestamp is the layout of timestamps in backend status documents.
const backendTimestamp = "20060102150405"

// ValueWithUnit is a measurement as reported by the backend. Unit 1 means kilometers.
type ValueWithUnit struct {
	Value float64 `json:"value"`
	Unit  int     `json:"unit"`
}

type rangeByFuel struct {
	EVModeRange         *ValueWithUnit `json:"evModeRange,omitempty"`
	GasModeRange        *ValueWithUnit `json:"gasModeRange,omitempty"`
	TotalAvailableRange *ValueWithUnit `json:"totalAvailableRange,omitempty"`
}

type driveDistance struct {
	RangeByFuel rangeByFuel `json:"rangeByFuel"`
}

// EVStatus is present only for electrified vehicles.
type EVStatus struct {
	BatteryStatus  *float64        `json:"batteryStatus,omitempty"`
	BatteryCharge  bool            `json:"batteryCharge"`
	BatteryPlugin  int             `json:"batteryPlugin"`
	DriveDistances []driveDistance `json:"drvDistance,omitempty"`
}

type coreStatus struct {
	Time      string         `json:"time"`
	DoorLock  bool           `json:"doorLock"`
	Engine    bool           `json:"engine"`
	AirCtrlOn bool           `json:"airCtrlOn"`
	Defrost   bool           `json:"defrost"`
	EVStatus  *EVStatus      `json:"evStatus,omitempty"`
	DTE       *ValueWithUnit `json:"dte,omitempty"`
}

type coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt"`
}

type vehicleLocation struct {
	Coord *coordinates `json:"coord,omitempty"`
	Time  string       `json:"time"`
}

// VehicleStatus is the typed view over a backend status document. Raw preserves the
// original document for clients that want fields not modeled here.
type VehicleStatus struct {
	Status   coreStatus       `json:"vehicleStatus"`
	Loc      *vehicleLocation `json:"vehicleLocation,omitempty"`
	Odometer *ValueWithUnit   `json:"odometer,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ParseVehicleStatus decodes a backend vehicleStatusInfo document.
func ParseVehicleStatus(data []byte) (*VehicleStatus, error) {
	var status VehicleStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	status.Raw = json.RawMessage(data)
	return &status, nil
}

// SoC returns the battery state of charge in percent. The second return value is false
// for vehicles without an EV battery or when the backend omitted the field.
func (s *VehicleStatus) SoC() (float64, bool) {
	if s == nil || s.Status.EVStatus == nil || s.Status.EVStatus.BatteryStatus == nil {
		return 0, false
	}
	return *s.Status.EVStatus.BatteryStatus, true
}

// DrivingRange returns the remaining driving range in km. EV range is preferred; hybrid
// and combustion vehicles fall back to the total available range.
func (s *VehicleStatus) DrivingRange() (float64, bool) {
	if s == nil {
		return 0, false
	}
	if ev := s.Status.EVStatus; ev != nil {
		for _, d := range ev.DriveDistances {
			if d.RangeByFuel.EVModeRange != nil {
				return d.RangeByFuel.EVModeRange.Value, true
			}
			if d.RangeByFuel.TotalAvailableRange != nil {
				return d.RangeByFuel.TotalAvailableRange.Value, true
			}
		}
	}
	if s.Status.DTE != nil {
		return s.Status.DTE.Value, true
	}
	return 0, false
}

// OdometerKm returns the odometer reading in km.
func (s *VehicleStatus) OdometerKm() (float64, bool) {
	if s == nil || s.Odometer == nil {
		return 0, false
	}
	return s.Odometer.Value, true
}

// Location is a GPS fix with the time the backend recorded it.
type Location struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	LastUpdated time.Time
}

// Location returns the vehicle's last known position. The fix time is parsed from the
// backend's timestamp format; a missing or malformed time yields a zero LastUpdated.
func (s *VehicleStatus) Location() (*Location, bool) {
	if s == nil || s.Loc == nil || s.Loc.Coord == nil {
		return nil, false
	}
	loc := &Location{
		Latitude:  s.Loc.Coord.Latitude,
		Longitude: s.Loc.Coord.Longitude,
		Altitude:  s.Loc.Coord.Altitude,
	}
	if t, err := time.Parse(backendTimestamp, s.Loc.Time); err == nil {
		loc.LastUpdated = t
	}
	return loc, true
}

// Vehicle pairs a vehicle's identity with its most recently fetched status.
type Vehicle struct {
	VehicleDescription

	Status    *VehicleStatus
	UpdatedAt time.Time
}

// Name returns the owner-assigned nickname, falling back to the model name.
func (v *Vehicle) Name() string {
	if v.Nickname != "" {
		return v.Nickname
	}
	return v.Model
}
