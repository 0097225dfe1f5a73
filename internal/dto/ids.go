package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// IDList accepts a single ID or an array of IDs, as numbers or numeric
// strings.
type IDList []uint64

func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = []json.RawMessage{data}
	}

	ids := make([]uint64, 0, len(raw))
	for _, item := range raw {
		id, err := parseID(item)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

func parseID(item json.RawMessage) (uint64, error) {
	var n uint64
	if err := json.Unmarshal(item, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(item, &s); err != nil {
		return 0, fmt.Errorf("invalid id %s", item)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return n, nil
}
