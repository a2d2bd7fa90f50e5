package core

import (
	"encoding/json"
	"sort"
)

type ConnectionID string

type ConnectionParams struct {
	ID      ConnectionID
	URL     string
	Options map[string]string
}

// Expand returns a copy of the original parameters with expanded fields
func (p *ConnectionParams) Expand() *ConnectionParams {
	var opts map[string]string
	if p.Options != nil {
		opts = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			opts[k] = expandOrDefault(v)
		}
	}

	return &ConnectionParams{
		ID:      ConnectionID(expandOrDefault(string(p.ID))),
		URL:     expandOrDefault(p.URL),
		Options: opts,
	}
}

// MarshalJSON never exposes option values, they often carry credentials.
func (cp *ConnectionParams) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(cp.Options))
	for k := range cp.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return json.Marshal(struct {
		ID      string   `json:"id"`
		URL     string   `json:"url"`
		Options []string `json:"options,omitempty"`
	}{
		ID:      string(cp.ID),
		URL:     cp.URL,
		Options: keys,
	})
}
