// Package cache stores the most recent status document fetched for each vehicle.
//
// The Bluelink backend throttles vehicle status reads aggressively, and a forced live
// refresh wakes the vehicle's telematics unit, which drains the 12V battery when done
// too often. Serving reads from a [StatusCache] within a configurable TTL keeps the
// request rate to the backend low without changing the façade's API.
//
// A StatusCache can be exported with [StatusCache.Export] or [StatusCache.ExportToFile]
// and re-imported after a restart, so the server can answer cached status reads before
// its first round trip to the backend. Exported files contain vehicle positions and
// should be protected with appropriate access controls.
package cache
