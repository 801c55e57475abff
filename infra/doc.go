// Package infra contains technical adapters such as the sqlite store,
// metrics exporters and the MQTT notifier. These packages depend only on
// the interfaces defined in the core packages.
package infra
