package config

import "testing"

func TestEnvironmentLoaderReadsVars(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://from-env:7687")
	t.Setenv("NEO4J_MAX_POOL_SIZE", "25")
	t.Setenv("QDRANT_VECTOR_DIMENSIONS", "1024")

	ov, err := EnvironmentLoader{}.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ov.Neo4jURI != "bolt://from-env:7687" {
		t.Errorf("expected NEO4J_URI to be read, got: %s", ov.Neo4jURI)
	}
	if ov.Neo4jMaxPoolSize != 25 {
		t.Errorf("expected NEO4J_MAX_POOL_SIZE=25, got: %d", ov.Neo4jMaxPoolSize)
	}
	if ov.QdrantVectorDimensions != 1024 {
		t.Errorf("expected QDRANT_VECTOR_DIMENSIONS=1024, got: %d", ov.QdrantVectorDimensions)
	}
}

func TestEnvironmentLoaderRejectsBadInt(t *testing.T) {
	t.Setenv("NEO4J_MAX_POOL_SIZE", "not-a-number")

	_, err := EnvironmentLoader{}.Load()
	if err == nil {
		t.Error("expected error for non-numeric NEO4J_MAX_POOL_SIZE")
	}
}

func TestEnvironmentOverridesApply(t *testing.T) {
	cfg := NewConfig()
	ov := EnvironmentOverrides{
		Neo4jURI:     "bolt://applied:7687",
		QdrantAPIKey: "secret",
		DBPath:       "/tmp/events.db",
	}
	ov.Apply(cfg)

	if cfg.Graph.URI != "bolt://applied:7687" {
		t.Errorf("expected graph uri to be applied, got: %s", cfg.Graph.URI)
	}
	if cfg.Vector.APIKey != "secret" {
		t.Errorf("expected vector api key to be applied, got: %s", cfg.Vector.APIKey)
	}
	if cfg.EventStore.DBPath != "/tmp/events.db" {
		t.Errorf("expected event store db path to be applied, got: %s", cfg.EventStore.DBPath)
	}
}

func TestEnvironmentOverridesApplyLeavesDefaultsWhenUnset(t *testing.T) {
	cfg := NewConfig()
	original := cfg.Graph.URI

	var ov EnvironmentOverrides
	ov.Apply(cfg)

	if cfg.Graph.URI != original {
		t.Errorf("expected graph uri unchanged, got: %s", cfg.Graph.URI)
	}
}
