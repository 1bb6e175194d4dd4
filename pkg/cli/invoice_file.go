package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tally/pkg/invoice"
)

// LoadInvoice reads one invoice from a JSON or YAML file
func LoadInvoice(path string) (*invoice.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isYAML(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	var inv invoice.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &inv, nil
}

// LoadInvoices reads every file in paths, stopping at the first error
func LoadInvoices(paths []string) ([]*invoice.Invoice, error) {
	list := make([]*invoice.Invoice, 0, len(paths))
	for _, path := range paths {
		inv, err := LoadInvoice(path)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON re-encodes a YAML document as JSON so invoice files share the
// decimal and date decoding of the API payloads.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue(doc))
}

func jsonValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = jsonValue(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = jsonValue(val)
		}
		return out
	case time.Time:
		return t.Format(invoice.DateLayout)
	default:
		return v
	}
}
