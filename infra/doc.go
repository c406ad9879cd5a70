// Package infra contains technical adapters such as the MQTT vehicle
// transport, the graph router and the decision log stores. These packages
// should depend only on the interfaces defined in the core packages.
package infra
