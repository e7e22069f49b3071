// Package server implements the HTTP façade over a vehicle manager: fixed REST routes,
// a uniform JSON response envelope, and an explicit command dispatch table.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bluelink-community/vehicle-connect/internal/log"
	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
)

// DefaultTimeout bounds a single upstream operation. Forced live refreshes wake the
// vehicle and routinely take tens of seconds.
const DefaultTimeout = 90 * time.Second

// Manager is the façade's view of the vehicle manager. The concrete implementation is
// [github.com/bluelink-community/vehicle-connect/pkg/manager.Manager].
type Manager interface {
	CheckAndRefreshToken(ctx context.Context) error
	UpdateAllVehiclesWithCachedState(ctx context.Context) error
	UpdateVehicleWithLatestState(ctx context.Context, vin string) error
	GetVehicle(vin string) (*bluelink.Vehicle, error)
	Lock(ctx context.Context, vin string) (string, error)
	Unlock(ctx context.Context, vin string) (string, error)
	StartClimate(ctx context.Context, vin string, opts bluelink.ClimateOptions) (string, error)
	StopClimate(ctx context.Context, vin string) (string, error)
	StartCharge(ctx context.Context, vin string) (string, error)
	StopCharge(ctx context.Context, vin string) (string, error)
}

// Server exposes a REST API over a single configured vehicle.
type Server struct {
	// Timeout bounds each upstream operation.
	Timeout time.Duration
	// Notifier, when set, receives a background alert after every control command.
	Notifier *Notifier

	manager Manager
	vin     string
}

// New creates a Server that forwards requests to m for the vehicle identified by vin.
func New(m Manager, vin string) *Server {
	return &Server{
		Timeout: DefaultTimeout,
		manager: m,
		vin:     vin,
	}
}

type route struct {
	method  string
	command string
	handler func(s *Server, w http.ResponseWriter, req *http.Request, command string)
}

var routes = map[string]route{
	"/":                 {http.MethodGet, "root", (*Server).handleRoot},
	"/info":             {http.MethodGet, "info", (*Server).handleInfo},
	"/status":           {http.MethodGet, "status_cached", (*Server).handleStatusCached},
	"/status/refresh":   {http.MethodGet, "status_live", (*Server).handleStatusLive},
	"/status/soc":       {http.MethodGet, "status_soc", (*Server).handleSoC},
	"/status/range":     {http.MethodGet, "status_range", (*Server).handleRange},
	"/odometer":         {http.MethodGet, "odometer", (*Server).handleOdometer},
	"/odometer/refresh": {http.MethodGet, "odometer", (*Server).handleOdometer},
	"/location":         {http.MethodGet, "location", (*Server).handleLocation},
	"/lock":             {http.MethodPost, "lock", (*Server).handleCommand},
	"/unlock":           {http.MethodPost, "unlock", (*Server).handleCommand},
	"/climate/start":    {http.MethodPost, "climate_start", (*Server).handleCommand},
	"/climate/stop":     {http.MethodPost, "climate_stop", (*Server).handleCommand},
	"/charge/start":     {http.MethodPost, "charge_start", (*Server).handleCommand},
	"/charge/stop":      {http.MethodPost, "charge_stop", (*Server).handleCommand},
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Info("Received %s request for %s", req.Method, req.URL.Path)

	r, ok := routes[req.URL.Path]
	if !ok {
		writeEnvelope(w, http.StatusNotFound, &Envelope{
			Success:        false,
			CommandInvoked: "route_not_found",
			Error:          "Error during route_not_found.",
			Details:        "The requested endpoint does not exist. See /info.",
		})
		return
	}
	if req.Method != r.method {
		writeEnvelope(w, http.StatusMethodNotAllowed, &Envelope{
			Success:        false,
			CommandInvoked: r.command,
			Error:          "Error during " + r.command + ".",
			Details:        "Method not allowed for this endpoint. See /info.",
		})
		return
	}
	r.handler(s, w, req, r.command)
}

func (s *Server) context(req *http.Request) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(req.Context(), timeout)
}

func (s *Server) handleRoot(w http.ResponseWriter, req *http.Request, command string) {
	writeSuccess(w, command, map[string]string{
		"message": "Bluelink Connect server running! See /info for endpoints.",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, req *http.Request, command string) {
	writeSuccess(w, command, apiInfo)
}

// refreshCached refreshes the token and the cached view, then resolves the configured
// vehicle. Shared by the cached status route.
func (s *Server) refreshCached(ctx context.Context) (*bluelink.Vehicle, error) {
	if err := s.manager.CheckAndRefreshToken(ctx); err != nil {
		return nil, err
	}
	if err := s.manager.UpdateAllVehiclesWithCachedState(ctx); err != nil {
		return nil, err
	}
	return s.manager.GetVehicle(s.vin)
}

// refreshLive refreshes the token and forces a live status poll, then resolves the
// configured vehicle. Shared by all live-read routes.
func (s *Server) refreshLive(ctx context.Context) (*bluelink.Vehicle, error) {
	if err := s.manager.CheckAndRefreshToken(ctx); err != nil {
		return nil, err
	}
	if err := s.manager.UpdateVehicleWithLatestState(ctx, s.vin); err != nil {
		return nil, err
	}
	return s.manager.GetVehicle(s.vin)
}

// statusData returns the raw backend status document when available, so clients see the
// full upstream payload rather than only the fields this package models.
func statusData(v *bluelink.Vehicle) interface{} {
	if v.Status == nil {
		return nil
	}
	if len(v.Status.Raw) > 0 {
		return json.RawMessage(v.Status.Raw)
	}
	return v.Status
}

func (s *Server) handleStatusCached(w http.ResponseWriter, req *http.Request, command string) {
	ctx, cancel := s.context(req)
	defer cancel()

	v, err := s.refreshCached(ctx)
	if err != nil {
		writeError(w, command, err)
		return
	}
	writeSuccess(w, command, statusData(v))
}

func (s *Server) handleStatusLive(w http.ResponseWriter, req *http.Request, command string) {
	ctx, cancel := s.context(req)
	defer cancel()

	v, err := s.refreshLive(ctx)
	if err != nil {
		writeError(w, command, err)
		return
	}
	writeSuccess(w, command, statusData(v))
}

func (s *Server) handleSoC(w http.ResponseWriter, req *http.Request, command string) {
	ctx, cancel := s.context(req)
	defer cancel()

	v, err := s.refreshLive(ctx)
	if err != nil {
		writeError(w, command, err)
		return
	}
	soc, ok := v.Status.SoC()
	if !ok {
		writeError(w, command, invalidData("SoC"))
		return
	}
	writeSuccess(w, command, map[string]interface{}{"soc": soc, "unit": "%"})
}

func (s *Server) handleRange(w http.ResponseWriter, req *http.Request, command string) {
	ctx, cancel := s.context(req)
	defer cancel()

	v, err := s.refreshLive(ctx)
	if err != nil {
		writeError(w, command, err)
		return
	}
	drivingRange, ok := v.Status.DrivingRange()
	if !ok {
		writeError(w, command, invalidData("range"))
		return
	}
	writeSuccess(w, command, map[string]interface{}{"range": drivingRange, "unit": "km"})
}

func (s *Server) handleOdometer(w http.ResponseWriter, req *http.Request, command string) {
	ctx, cancel := s.context(req)
	defer cancel()

	v, err := s.refreshLive(ctx)
	if err != nil {
		writeError(w, command, err)
		return
	}
	odometer, ok := v.Status.OdometerKm()
	if !ok {
		writeError(w, command, invalidData("odometer"))
		return
	}
	writeSuccess(w, command, map[string]interface{}{"odometer": odometer, "unit": "km"})
}

func (s *Server) handleLocation(w http.ResponseWriter, req *http.Request, command string) {
	ctx, cancel := s.context(req)
	defer cancel()

	v, err := s.refreshLive(ctx)
	if err != nil {
		writeError(w, command, err)
		return
	}
	location, ok := v.Status.Location()
	if !ok {
		writeError(w, command, invalidData("location"))
		return
	}
	data := map[string]interface{}{
		"latitude":  location.Latitude,
		"longitude": location.Longitude,
		"altitude":  location.Altitude,
	}
	if !location.LastUpdated.IsZero() {
		data["last_updated"] = location.LastUpdated.Format(time.RFC3339)
	}
	writeSuccess(w, command, data)
}

func (s *Server) handleCommand(w http.ResponseWriter, req *http.Request, command string) {
	params, err := parseRequestParameters(req)
	if err != nil {
		writeError(w, command, err)
		return
	}
	action, err := extractCommandAction(command, params)
	if err != nil {
		writeError(w, command, err)
		return
	}

	ctx, cancel := s.context(req)
	defer cancel()

	result, err := action(ctx, s.manager, s.vin)
	if err != nil {
		writeError(w, command, err)
		s.notify(command, false, err.Error())
		return
	}
	writeSuccess(w, command, map[string]interface{}{"result": result})
	s.notify(command, true, "")
}

// notify fires the alert webhook in the background; command handling never waits on it.
func (s *Server) notify(command string, success bool, detail string) {
	if s.Notifier == nil {
		return
	}
	go s.Notifier.Notify(command, s.vin, success, detail)
}
