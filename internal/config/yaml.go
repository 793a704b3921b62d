// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pandoc-live/pkg/types"
)

// durationKeys are the config keys holding a time.Duration.
var durationKeys = map[string]bool{
	"timeout":  true,
	"debounce": true,
}

// WriteYAML writes cfg in the config file format, with durations spelled
// as in the file ("500ms") rather than as nanoseconds.
func WriteYAML(w io.Writer, cfg types.Config) error {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	humanizeDurations(&root)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return enc.Close()
}

func humanizeDurations(n *yaml.Node) {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode {
				if ns, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
					val.Value = time.Duration(ns).String()
					val.Tag = "!!str"
					val.Style = 0
				}
			}
		}
	}
	for _, c := range n.Content {
		humanizeDurations(c)
	}
}
