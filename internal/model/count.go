package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Count is one row of a frequency table.
type Count struct {
	Name  string
	Count int
}

// Counts is an ordered frequency table. It marshals to a JSON object whose
// keys keep the slice order, so the most frequent entry comes first.
type Counts []Count

// CountValues tallies values and returns them ordered by count descending,
// ties broken by first appearance.
func CountValues(values []string) Counts {
	index := make(map[string]int, len(values))
	counts := Counts{}
	for _, v := range values {
		if i, ok := index[v]; ok {
			counts[i].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, Count{Name: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Top returns at most n leading entries. n <= 0 returns all entries.
func (c Counts) Top(n int) Counts {
	if n <= 0 || n >= len(c) {
		return c
	}
	return c[:n]
}

// Get returns the count for name, or 0.
func (c Counts) Get(name string) int {
	for _, e := range c {
		if e.Name == name {
			return e.Count
		}
	}
	return 0
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, e := range c {
		total += e.Count
	}
	return total
}

// MarshalJSON encodes the table as an ordered JSON object.
func (c Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", e.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping its key order.
func (c *Counts) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*c = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("counts: expected object, got %v", tok)
	}

	out := Counts{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("counts: expected key, got %v", tok)
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("counts: value of %q: %w", name, err)
		}
		out = append(out, Count{Name: name, Count: n})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}
