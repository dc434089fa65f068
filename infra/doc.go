// Package infra holds the adapters behind the core interfaces: zerolog
// logging, MQTT publishing, Prometheus and InfluxDB sinks, and Sentry
// monitoring. Core packages never import infra.
package infra
