package config

import (
	"os"
	"strconv"
)

// EnvironmentLoader reads store connection settings from the process
// environment exactly once at startup, independent of any config
// file. It exists so the handful of values an orchestrator (a
// container platform, a CI job) typically injects as env vars don't
// require a config file to be present at all.
type EnvironmentLoader struct{}

// EnvironmentOverrides holds the subset of Config fields that may be
// sourced from the environment.
type EnvironmentOverrides struct {
	Neo4jURI         string
	Neo4jUsername    string
	Neo4jPassword    string
	Neo4jDatabase    string
	Neo4jMaxPoolSize int

	QdrantURL              string
	QdrantCollectionName   string
	QdrantAPIKey           string
	QdrantVectorDimensions int

	DBPath string
}

// Load reads the recognized environment variables into an
// EnvironmentOverrides. Variables that are unset are left at their
// zero value; callers apply only the non-zero fields.
func (EnvironmentLoader) Load() (EnvironmentOverrides, error) {
	var ov EnvironmentOverrides

	ov.Neo4jURI = os.Getenv("NEO4J_URI")
	ov.Neo4jUsername = os.Getenv("NEO4J_USERNAME")
	ov.Neo4jPassword = os.Getenv("NEO4J_PASSWORD")
	ov.Neo4jDatabase = os.Getenv("NEO4J_DATABASE")

	ov.QdrantURL = os.Getenv("QDRANT_URL")
	ov.QdrantCollectionName = os.Getenv("QDRANT_COLLECTION_NAME")
	ov.QdrantAPIKey = os.Getenv("QDRANT_API_KEY")

	ov.DBPath = os.Getenv("PING_MEM_DB_PATH")

	if v := os.Getenv("NEO4J_MAX_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ov, errInvalidEnvInt("NEO4J_MAX_POOL_SIZE", v, err)
		}
		ov.Neo4jMaxPoolSize = n
	}
	if v := os.Getenv("QDRANT_VECTOR_DIMENSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ov, errInvalidEnvInt("QDRANT_VECTOR_DIMENSIONS", v, err)
		}
		ov.QdrantVectorDimensions = n
	}

	return ov, nil
}

// Apply overlays non-zero overrides onto cfg.
func (ov EnvironmentOverrides) Apply(cfg *Config) {
	if ov.Neo4jURI != "" {
		cfg.Graph.URI = ov.Neo4jURI
	}
	if ov.Neo4jUsername != "" {
		cfg.Graph.Username = ov.Neo4jUsername
	}
	if ov.Neo4jPassword != "" {
		cfg.Graph.Password = ov.Neo4jPassword
	}
	if ov.Neo4jDatabase != "" {
		cfg.Graph.Database = ov.Neo4jDatabase
	}
	if ov.Neo4jMaxPoolSize != 0 {
		cfg.Graph.MaxPoolSize = ov.Neo4jMaxPoolSize
	}
	if ov.QdrantURL != "" {
		cfg.Vector.URL = ov.QdrantURL
	}
	if ov.QdrantCollectionName != "" {
		cfg.Vector.CollectionName = ov.QdrantCollectionName
	}
	if ov.QdrantAPIKey != "" {
		cfg.Vector.APIKey = ov.QdrantAPIKey
	}
	if ov.QdrantVectorDimensions != 0 {
		cfg.Vector.VectorDimensions = ov.QdrantVectorDimensions
	}
	if ov.DBPath != "" {
		cfg.EventStore.DBPath = ov.DBPath
	}
}

func errInvalidEnvInt(name, value string, cause error) error {
	return &invalidEnvError{name: name, value: value, cause: cause}
}

type invalidEnvError struct {
	name  string
	value string
	cause error
}

func (e *invalidEnvError) Error() string {
	return "invalid integer value for " + e.name + ": " + e.value + ": " + e.cause.Error()
}

func (e *invalidEnvError) Unwrap() error {
	return e.cause
}
