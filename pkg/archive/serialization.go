package archive

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Scalar fields map to individual hash fields so they can be read without
// decoding the whole program; the carrier list is JSON-encoded.

// ProgramToHash converts a Program to a Redis hash.
func ProgramToHash(p *Program) (map[string]interface{}, error) {
	carriersJSON, err := json.Marshal(p.Carriers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal carriers: %w", err)
	}

	hash := map[string]interface{}{
		"id":            p.ID,
		"digest":        p.Digest,
		"name":          p.Name,
		"width":         p.Width,
		"height":        p.Height,
		"carriers":      string(carriersJSON),
		"bindoff":       strconv.FormatBool(p.Bindoff),
		"instructions":  p.Instructions,
		"knitout":       p.Knitout,
		"created_at_ms": p.CreatedAtMs,
	}

	return hash, nil
}

// HashToProgram converts a Redis hash back to a Program.
func HashToProgram(hash map[string]string) (*Program, error) {
	width, err := strconv.Atoi(hash["width"])
	if err != nil {
		return nil, fmt.Errorf("invalid width field: %w", err)
	}
	height, err := strconv.Atoi(hash["height"])
	if err != nil {
		return nil, fmt.Errorf("invalid height field: %w", err)
	}
	instructions, err := strconv.Atoi(hash["instructions"])
	if err != nil {
		return nil, fmt.Errorf("invalid instructions field: %w", err)
	}

	var carriers []int
	if carriersJSON := hash["carriers"]; carriersJSON != "" {
		if err := json.Unmarshal([]byte(carriersJSON), &carriers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal carriers: %w", err)
		}
	}
	if carriers == nil {
		carriers = []int{}
	}

	bindoff, _ := strconv.ParseBool(hash["bindoff"])
	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)

	return &Program{
		ID:           hash["id"],
		Digest:       hash["digest"],
		Name:         hash["name"],
		Width:        width,
		Height:       height,
		Carriers:     carriers,
		Bindoff:      bindoff,
		Instructions: instructions,
		Knitout:      hash["knitout"],
		CreatedAtMs:  createdAtMs,
	}, nil
}
