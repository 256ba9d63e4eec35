package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configSchema is the JSON Schema for the daemon configuration. It
// catches structural mistakes (wrong types, unknown log levels) before
// the semantic checks in Validate run.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "dragwatch-config.schema.json",
  "type": "object",
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "tracker": {
      "type": "object",
      "properties": {
        "backend": {"type": "string", "enum": ["auto", "simulated"]},
        "accounting_interval_ms": {"type": "integer", "minimum": 1}
      }
    },
    "shake": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "min_reversals": {"type": "integer", "minimum": 0},
        "window_ms": {"type": "integer", "minimum": 0},
        "min_speed_px_sec": {"type": "number", "minimum": 0}
      }
    },
    "drag": {
      "type": "object",
      "properties": {
        "poll_interval_ms": {"type": "integer", "minimum": 1},
        "session_timeout_ms": {"type": "integer", "minimum": 1}
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "format": {"type": "string", "enum": ["text", "json"]},
        "output": {"type": "string"},
        "file_path": {"type": "string"},
        "max_size_mb": {"type": "integer", "minimum": 0},
        "max_backups": {"type": "integer", "minimum": 0}
      }
    },
    "ipc": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "socket_path": {"type": "string"},
        "max_connections": {"type": "integer", "minimum": 0},
        "timeout_sec": {"type": "integer", "minimum": 0}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("dragwatch-config.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("dragwatch-config.schema.json")
	})
	return schema, schemaErr
}

// validateSchema validates a Config against the embedded schema. The
// config round-trips through JSON because the validator operates on
// generic decoded values.
func validateSchema(c *Config) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config for validation: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal config for validation: %w", err)
	}

	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	return nil
}
