package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is a parsed agent configuration file. The file declares the
// optimizer the agent reports to, the ordered list of connectors to
// assemble, and one settings stanza per connector, keyed by the
// connector's name at the document's top level:
//
//	optimizer:
//	  id: example.com/shop
//	  token: "${TUNEKIT_TOKEN}"
//	connectors:
//	  - prometheus
//	  - name: prod_namespace
//	    type: KubernetesConnector
//	prometheus:
//	  base_url: http://prometheus:9090
//	prod_namespace:
//	  namespace: prod
//
// A bare string entry names a connector whose type is resolved from the
// name itself; the map form binds an explicit type to the name.
type File struct {
	optimizer  OptimizerConfig
	connectors []ConnectorEntry
	root       Config
}

// OptimizerConfig is the optimizer stanza of an agent file.
type OptimizerConfig struct {
	// ID is the optimizer identifier, "org.domain/app-name".
	ID string
	// Token authenticates against the optimizer API.
	Token string
	// BaseURL overrides the default API endpoint. Optional.
	BaseURL string
}

// ConnectorEntry is one entry of the connectors list, in file order.
type ConnectorEntry struct {
	// Name is the connector's name within the assembled group.
	Name string
	// Type is the declared connector type. Empty when the entry was a
	// bare name, in which case the type resolves from the name.
	Type string
}

// LoadFile reads and parses an agent configuration file.
// Supported extensions: .yaml, .yml, .json
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return ParseFile(data)
	case ".json":
		return ParseFileJSON(data)
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// ParseFile parses YAML agent configuration data.
func ParseFile(data []byte) (*File, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse agent config: %w", err)
	}
	return fileFromConfig(New(m))
}

// ParseFileJSON parses JSON agent configuration data.
func ParseFileJSON(data []byte) (*File, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse agent config: %w", err)
	}
	return fileFromConfig(New(m))
}

func fileFromConfig(root Config) (*File, error) {
	f := &File{root: root}

	opt := root.Sub("optimizer")
	f.optimizer = OptimizerConfig{
		ID:      opt.String("id", ""),
		Token:   opt.String("token", ""),
		BaseURL: opt.String("base_url", ""),
	}

	raw, _ := root.Any("connectors", nil).([]any)
	seen := make(map[string]struct{}, len(raw))
	for i, entry := range raw {
		var ce ConnectorEntry
		switch v := entry.(type) {
		case string:
			ce.Name = v
		case map[string]any:
			ec := New(v)
			ce.Name = ec.String("name", "")
			ce.Type = ec.String("type", "")
			if ce.Name == "" {
				return nil, fmt.Errorf("connectors[%d]: name is required", i)
			}
		default:
			return nil, fmt.Errorf("connectors[%d]: expected name or {name, type}, got %T", i, entry)
		}
		if _, dup := seen[ce.Name]; dup {
			return nil, fmt.Errorf("connectors[%d]: duplicate connector name %q", i, ce.Name)
		}
		seen[ce.Name] = struct{}{}
		f.connectors = append(f.connectors, ce)
	}

	return f, nil
}

// Optimizer returns the optimizer stanza.
func (f *File) Optimizer() OptimizerConfig {
	return f.optimizer
}

// Connectors returns the declared connector entries in file order.
func (f *File) Connectors() []ConnectorEntry {
	entries := make([]ConnectorEntry, len(f.connectors))
	copy(entries, f.connectors)
	return entries
}

// ConnectorConfig returns the settings stanza for the named connector.
// A connector without a stanza gets an empty Config.
func (f *File) ConnectorConfig(name string) Config {
	return f.root.Sub(name)
}
