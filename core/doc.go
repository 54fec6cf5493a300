// Package core contains the canonical message model, the adapter registry and
// the ingestion and classification pipelines. Provider adapters, stores and
// classifiers depend on this package; core must not depend on any of them.
package core
