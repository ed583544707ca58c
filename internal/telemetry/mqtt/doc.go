// Package mqtt implements telemetry sources on top of an MQTT broker.
//
// Every PV maps to the topic "<prefix>/<pvname>". Payloads are either a bare
// number or a JSON object {"value": <number>, "timestamp": <unix seconds>}.
// The Factory owns a single broker connection shared by all sources and also
// publishes outbound events.
package mqtt
