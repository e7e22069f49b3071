package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
)

const maxRequestBodyBytes = 512

const (
	minClimateTemperature = 16.0
	maxClimateTemperature = 30.0
)

// ErrUnknownCommand indicates a POST route whose command has no dispatch entry.
var ErrUnknownCommand = errors.New("unknown command")

// RequestParameters allows simple type checks on JSON request bodies.
type RequestParameters map[string]interface{}

func parseRequestParameters(req *http.Request) (RequestParameters, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxRequestBodyBytes))
	if err != nil {
		return nil, invalidInput("could not read request body")
	}
	if len(body) == 0 {
		return nil, nil
	}
	var params RequestParameters
	if err := json.Unmarshal(body, &params); err != nil {
		return nil, invalidInput("could not parse JSON body")
	}
	return params, nil
}

// commandAction executes a control command against the manager and returns its result.
type commandAction func(ctx context.Context, m Manager, vin string) (interface{}, error)

// extractCommandAction maps a command name to the manager call that implements it. This
// is the explicit command table the POST routes dispatch through.
func extractCommandAction(command string, params RequestParameters) (commandAction, error) {
	switch command {
	case "lock":
		return func(ctx context.Context, m Manager, vin string) (interface{}, error) {
			return m.Lock(ctx, vin)
		}, nil
	case "unlock":
		return func(ctx context.Context, m Manager, vin string) (interface{}, error) {
			return m.Unlock(ctx, vin)
		}, nil
	case "climate_start":
		temperature, err := params.getNumber("temperature", true)
		if err != nil {
			return nil, err
		}
		if temperature < minClimateTemperature || temperature > maxClimateTemperature {
			return nil, invalidInput("invalid temperature value (expected number between %.0f-%.0f)", minClimateTemperature, maxClimateTemperature)
		}
		defrost, err := params.getBool("defrost", false)
		if err != nil {
			return nil, err
		}
		climate, err := params.getBool("climate", true)
		if err != nil {
			return nil, err
		}
		heating, err := params.getBool("heating", true)
		if err != nil {
			return nil, err
		}
		opts := bluelink.ClimateOptions{
			Temperature: temperature,
			Defrost:     defrost,
			Climate:     climate,
			Heating:     heating,
		}
		return func(ctx context.Context, m Manager, vin string) (interface{}, error) {
			return m.StartClimate(ctx, vin, opts)
		}, nil
	case "climate_stop":
		return func(ctx context.Context, m Manager, vin string) (interface{}, error) {
			return m.StopClimate(ctx, vin)
		}, nil
	case "charge_start":
		return func(ctx context.Context, m Manager, vin string) (interface{}, error) {
			return m.StartCharge(ctx, vin)
		}, nil
	case "charge_stop":
		return func(ctx context.Context, m Manager, vin string) (interface{}, error) {
			return m.StopCharge(ctx, vin)
		}, nil
	}
	return nil, ErrUnknownCommand
}

// getNumber returns the float value stored under key. Missing required keys and values
// of the wrong type are validation errors.
func (p RequestParameters) getNumber(key string, required bool) (float64, error) {
	value, exists := p[key]
	if exists {
		if num, isFloat64 := value.(float64); isFloat64 {
			return num, nil
		}
		return 0, invalidInput("invalid %s param", key)
	}
	if !required {
		return 0, nil
	}
	return 0, invalidInput("missing '%s' in JSON body", key)
}

// getBool returns the bool stored under key, or fallback when absent.
func (p RequestParameters) getBool(key string, fallback bool) (bool, error) {
	value, exists := p[key]
	if exists {
		if val, isBool := value.(bool); isBool {
			return val, nil
		}
		return false, invalidInput("invalid %s param", key)
	}
	return fallback, nil
}
