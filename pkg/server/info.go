package server

import "github.com/bluelink-community/vehicle-connect/pkg/bluelink"

type endpointInfo struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
	BodyExample string `json:"body_example,omitempty"`
}

type infoDocument struct {
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

// apiInfo is the metadata document served by GET /info.
var apiInfo = infoDocument{
	Description: "Bluelink Connect API Server (Go)",
	Version:     bluelink.Version(),
	Endpoints: []endpointInfo{
		{Path: "/", Method: "GET", Description: "Shows welcome message and link to /info."},
		{Path: "/info", Method: "GET", Description: "Shows this API information."},
		{Path: "/status", Method: "GET", Description: "Gets cached vehicle status."},
		{Path: "/status/refresh", Method: "GET", Description: "Forces refresh and gets live vehicle status."},
		{Path: "/status/soc", Method: "GET", Description: "Gets live State of Charge (SoC) in percent."},
		{Path: "/status/range", Method: "GET", Description: "Gets live driving range in km."},
		{Path: "/odometer", Method: "GET", Description: "Gets the odometer reading."},
		{Path: "/odometer/refresh", Method: "GET", Description: "Forces refresh and gets the odometer reading."},
		{Path: "/location", Method: "GET", Description: "Gets the vehicle location."},
		{Path: "/lock", Method: "POST", Description: "Locks the vehicle."},
		{Path: "/unlock", Method: "POST", Description: "Unlocks the vehicle."},
		{Path: "/climate/start", Method: "POST", Description: "Starts climate control. Temperature in °C.",
			BodyExample: `{"temperature": 21, "defrost": false, "climate": true, "heating": true}`},
		{Path: "/climate/stop", Method: "POST", Description: "Stops climate control."},
		{Path: "/charge/start", Method: "POST", Description: "Starts charging (EV/PHEV)."},
		{Path: "/charge/stop", Method: "POST", Description: "Stops charging (EV/PHEV)."},
	},
}
