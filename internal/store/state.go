package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// PutCookie stores a cookie, replacing any previous value.
func (s *Store) PutCookie(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cookies (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return fmt.Errorf("put cookie %q: %w", name, err)
	}
	return nil
}

// Cookie returns the value of a stored cookie, or ErrNotFound.
func (s *Store) Cookie(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cookies WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read cookie %q: %w", name, err)
	}
	return value, nil
}

// ReadCookie implements the cookie collaborator. Read failures count as a
// missing cookie.
func (s *Store) ReadCookie(name string) (string, bool) {
	v, err := s.Cookie(context.Background(), name)
	if err != nil {
		return "", false
	}
	return v, true
}

// PutLinkerParam stores a forwarded linker parameter. v must be a string or
// a number.
func (s *Store) PutLinkerParam(ctx context.Context, namespace, key string, v any) error {
	raw, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("put linker param %s.%s: %w", namespace, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO linker_params (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, namespace, key, raw)
	if err != nil {
		return fmt.Errorf("put linker param %s.%s: %w", namespace, key, err)
	}
	return nil
}

// LinkerParam returns a stored linker parameter, or ErrNotFound.
func (s *Store) LinkerParam(ctx context.Context, namespace, key string) (any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM linker_params WHERE namespace = ? AND key = ?
	`, namespace, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read linker param %s.%s: %w", namespace, key, err)
	}
	return unmarshalValue(raw), nil
}

// Get implements the linker collaborator.
func (s *Store) Get(namespace, key string) (any, bool) {
	v, err := s.LinkerParam(context.Background(), namespace, key)
	if err != nil {
		return nil, false
	}
	return v, true
}

// PutVideoState stores one property of a media element. v must be a string
// or a number.
func (s *Store) PutVideoState(ctx context.Context, elementID, property string, v any) error {
	raw, err := marshalValue(v)
	if err != nil {
		return fmt.Errorf("put video state %s/%s: %w", elementID, property, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO video_state (element_id, property, value) VALUES (?, ?, ?)
		ON CONFLICT(element_id, property) DO UPDATE SET value = excluded.value
	`, elementID, property, raw)
	if err != nil {
		return fmt.Errorf("put video state %s/%s: %w", elementID, property, err)
	}
	return nil
}

// Query implements the video collaborator. An unknown element or property
// wraps ErrNotFound.
func (s *Store) Query(ctx context.Context, elementID, property string) (any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM video_state WHERE element_id = ? AND property = ?
	`, elementID, property).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video state %s/%s: %w", elementID, property, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query video state %s/%s: %w", elementID, property, err)
	}
	return unmarshalValue(raw), nil
}

// marshalValue converts a string or number to JSON TEXT for storage.
func marshalValue(v any) (string, error) {
	switch v.(type) {
	case string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue returns a string for JSON strings and a json.Number for
// JSON numbers, keeping the number's stored text.
func unmarshalValue(raw string) any {
	r := gjson.Parse(raw)
	switch r.Type {
	case gjson.String:
		return r.String()
	case gjson.Number:
		return json.Number(r.Raw)
	default:
		return r.Raw
	}
}
