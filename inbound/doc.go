// Package inbound turns raw webhook deliveries into ingestion calls.
//
// A delivery is mapped to a known provider, verified, decoded into a JSON
// object and handed to the ingestion service. The result is shaped into the
// acknowledgment returned to the provider.
package inbound
