// Package env fills a struct from environment variables described by
// struct tags:
//
//	Token string        `env:"CALCPAD_TELEGRAM_TOKEN,required"`
//	TTL   time.Duration `env:"CALCPAD_MEMCACHED_TTL_TIMEOUT" env-default:"20m"`
package env

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	TagValue   = "env"
	TagDefault = "env-default"
)

var (
	ErrNotStruct   = errors.New("env: target must be a pointer to a struct")
	ErrRequired    = errors.New("env: required variable is not set")
	ErrUnsupported = errors.New("env: unsupported field type")
)

var durationType = reflect.TypeOf(time.Duration(0))

func Read(root any) error {
	rootValue := reflect.ValueOf(root)
	if rootValue.Kind() != reflect.Pointer || rootValue.IsNil() {
		return ErrNotStruct
	}

	rootValue = rootValue.Elem()
	if rootValue.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	return readStruct(rootValue)
}

func readStruct(structValue reflect.Value) error {
	structType := structValue.Type()
	for i := 0; i < structValue.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)
		if !field.IsExported() {
			continue
		}

		tag, hasTag := field.Tag.Lookup(TagValue)
		if !hasTag {
			if nested := indirect(fieldValue); nested.Kind() == reflect.Struct {
				if err := readStruct(nested); err != nil {
					return err
				}
			}
			continue
		}

		name, options := parseTag(tag)
		value, found := os.LookupEnv(name)
		if !found {
			defValue, hasDefault := field.Tag.Lookup(TagDefault)
			switch {
			case hasDefault:
				value = defValue
			case options.Contains("required"):
				return fmt.Errorf("%w: %s", ErrRequired, name)
			default:
				continue
			}
		}

		if err := parseValue(fieldValue, value); err != nil {
			return fmt.Errorf("env: can't parse %s: %w", name, err)
		}
	}
	return nil
}

func indirect(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Pointer {
		return v
	}
	if v.IsNil() {
		v.Set(reflect.New(v.Type().Elem()))
	}
	return v.Elem()
}

func parseValue(fieldValue reflect.Value, value string) error {
	fieldValue = indirect(fieldValue)

	if u, ok := fieldValue.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return u.UnmarshalText([]byte(value))
	}

	if fieldValue.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		fieldValue.SetInt(int64(d))
		return nil
	}

	switch fieldValue.Kind() {
	case reflect.String:
		fieldValue.SetString(value)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		fieldValue.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 0, fieldValue.Type().Bits())
		if err != nil {
			return err
		}
		fieldValue.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 0, fieldValue.Type().Bits())
		if err != nil {
			return err
		}
		fieldValue.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, fieldValue.Type().Bits())
		if err != nil {
			return err
		}
		fieldValue.SetFloat(f)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, fieldValue.Type())
	}
	return nil
}

type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opt, _ := strings.Cut(tag, ",")
	return name, tagOptions(opt)
}

func (o tagOptions) Contains(optionName string) bool {
	s := string(o)
	for s != "" {
		var name string
		name, s, _ = strings.Cut(s, ",")
		if name == optionName {
			return true
		}
	}
	return false
}
