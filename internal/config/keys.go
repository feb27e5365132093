// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jeranaias/chatptq/internal/netclient"
)

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// ErrUnknownKey is returned for a dotted key that names no field.
var ErrUnknownKey = errors.New("unknown config key")

// Get returns the value at a dotted key (e.g. "user_proxy.host") rendered as
// a string. Keys are the TOML field names; "-" and "_" are interchangeable.
func (c AppConfig) Get(key string) (string, error) {
	field, err := lookupField(reflect.ValueOf(&c).Elem(), key)
	if err != nil {
		return "", err
	}
	if p, ok := field.Interface().(netclient.Proxy); ok {
		return p.String(), nil
	}
	return fmt.Sprint(field.Interface()), nil
}

// With returns a copy of c with the dotted key set from a string value. The
// result is validated; c is never modified.
func (c AppConfig) With(key, value string) (AppConfig, error) {
	next := c
	field, err := lookupField(reflect.ValueOf(&next).Elem(), key)
	if err != nil {
		return c, err
	}
	if err := setFieldValue(field, value); err != nil {
		return c, fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}

// Keys returns every settable dotted key.
func Keys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(AppConfig{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := tomlName(f)
		if name == "" {
			continue
		}
		*keys = append(*keys, prefix+name)
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, prefix+name+".", keys)
		}
	}
}

func lookupField(v reflect.Value, key string) (reflect.Value, error) {
	key = strings.TrimSpace(strings.ToLower(strings.ReplaceAll(key, "-", "_")))
	if key == "" {
		return reflect.Value{}, fmt.Errorf("%w: empty key", ErrUnknownKey)
	}

	parts := strings.Split(key, ".")
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: '%s' is not a section", ErrUnknownKey, strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}

// setFieldValue sets a reflect.Value from its string form.
func setFieldValue(field reflect.Value, value string) error {
	value = strings.TrimSpace(value)

	switch field.Interface().(type) {
	case netclient.Proxy:
		p, err := netclient.ParseProxy(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(p))
		return nil
	case FastSendMode:
		m, err := ParseFastSendMode(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(m))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value %q", value)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("cannot assign to %s", field.Type())
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", s)
}
