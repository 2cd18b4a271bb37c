package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// pagination is the paging block of a primary-provider envelope. Either
// signal may be absent.
type pagination struct {
	Page        int   `json:"page"`
	TotalPages  *int  `json:"totalPages"`
	HasNextPage *bool `json:"hasNextPage"`
}

// more reports whether another page follows page. hasNextPage wins over
// totalPages; an envelope with neither is a single page.
func (p *pagination) more(page int) bool {
	if p == nil {
		return false
	}
	if p.HasNextPage != nil {
		return *p.HasNextPage
	}
	if p.TotalPages != nil {
		return page < *p.TotalPages
	}
	return false
}

type pageEnvelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *pagination     `json:"pagination"`
}

var errMissingData = errors.New("envelope has no data field")

// decodePage decodes one primary-provider page: {data: [...], pagination}.
func decodePage[T any](body []byte) ([]T, *pagination, error) {
	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, err
	}
	if len(env.Data) == 0 {
		return nil, nil, errMissingData
	}
	var records []T
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, nil, fmt.Errorf("data: %w", err)
	}
	return records, env.Pagination, nil
}

// decodeKeyed decodes a keyed map of record lists, bare or wrapped in
// {data: {...}}.
func decodeKeyed[T any](body []byte) (map[string][]T, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	if data, ok := top["data"]; ok {
		body = data
	}
	out := make(map[string][]T)
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeRecords decodes a record list given as a bare array or as
// {data: [...]}.
func decodeRecords[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env pageEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if len(env.Data) == 0 {
			return nil, errMissingData
		}
		trimmed = env.Data
	}
	records := make([]T, 0)
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// decodeObject decodes a single record given bare or as {data: {...}}. A
// top-level "data" key without an "id" is taken as the envelope.
func decodeObject[T any](body []byte) (*T, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	if data, ok := top["data"]; ok {
		if _, hasID := top["id"]; !hasID {
			body = data
		}
	}
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
