package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dans les scripts, un temps s'écrit en nombre (90, 1.5) ou en chaîne
// horloge ("01:30", "00:01:30.5").

func (s *Seconds) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: time must be a number or \"MM:SS\"", n.Line)
	}
	v, err := ParseClock(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*s = v
	return nil
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := ParseClock(str)
		if err != nil {
			return err
		}
		*s = v
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("time %s: %w", b, err)
	}
	*s = Seconds(f)
	return nil
}

func (s *Seconds) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		*s = Seconds(v)
	case float64:
		*s = Seconds(v)
	case string:
		p, err := ParseClock(v)
		if err != nil {
			return err
		}
		*s = p
	default:
		return fmt.Errorf("time must be a number or \"MM:SS\", got %T", data)
	}
	return nil
}
