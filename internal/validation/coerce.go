package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var errNotInteger = errors.New("not an integer in range")

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// integerHook converts text and JSON numbers into integer fields. Text is
// read as base 10 only, so "010" is ten. Numbers must be whole and fit the
// field. Text is left for mapstructure to reject when implicit is false.
func integerHook(implicit bool) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		signed := isSignedKind(to.Kind())
		if !signed && !isUnsignedKind(to.Kind()) {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			if !implicit {
				return data, nil
			}
			text := strings.TrimSpace(reflect.ValueOf(data).String())
			if signed {
				n, err := strconv.ParseInt(text, 10, to.Bits())
				if err != nil {
					return nil, fmt.Errorf("%w: %q", errNotInteger, text)
				}
				return n, nil
			}
			n, err := strconv.ParseUint(text, 10, to.Bits())
			if err != nil {
				return nil, fmt.Errorf("%w: %q", errNotInteger, text)
			}
			return n, nil

		case reflect.Float32, reflect.Float64:
			f := reflect.ValueOf(data).Float()
			if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
				return nil, fmt.Errorf("%w: %v", errNotInteger, f)
			}
			if signed {
				limit := math.Ldexp(1, to.Bits()-1)
				if f < -limit || f >= limit {
					return nil, fmt.Errorf("%w: %v", errNotInteger, f)
				}
				return int64(f), nil
			}
			if f < 0 || f >= math.Ldexp(1, to.Bits()) {
				return nil, fmt.Errorf("%w: %v", errNotInteger, f)
			}
			return uint64(f), nil
		}

		return data, nil
	}
}

func isSignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsignedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// quotedName matches the field name mapstructure quotes at the start of each
// failure line, e.g. 'author.pages'.
var quotedName = regexp.MustCompile(`'([^']+)'`)

// decodeViolations turns a mapstructure failure into one violation per field,
// worded after the type the field declares.
func decodeViolations(err error, dst any) []string {
	root := reflect.TypeOf(dst)

	names := namedFailures(err)
	if len(names) == 0 {
		for _, line := range strings.Split(err.Error(), "\n") {
			if m := quotedName.FindStringSubmatch(line); m != nil {
				names = append(names, m[1])
			}
		}
	}

	seen := make(map[string]struct{}, len(names))
	violations := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		violations = append(violations, typeViolation(name, fieldType(root, name)))
	}
	if len(violations) == 0 {
		return []string{"request payload has an invalid shape"}
	}
	return violations
}

// namedFailures collects the deepest field names carried by mapstructure's
// structured errors.
func namedFailures(err error) []string {
	var names []string
	var walk func(error) bool
	walk = func(err error) bool {
		if err == nil {
			return false
		}

		found := false
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				if walk(inner) {
					found = true
				}
			}
		case interface{ Unwrap() error }:
			found = walk(x.Unwrap())
		}
		if found {
			return true
		}

		if named, ok := err.(interface{ Name() string }); ok && named.Name() != "" {
			names = append(names, named.Name())
			return true
		}
		return false
	}
	walk(err)
	return names
}

// fieldType resolves a decoder path such as "author.tags[0]" against the
// json names of root. It returns nil when the path does not resolve.
func fieldType(root reflect.Type, path string) reflect.Type {
	t := root
	for _, segment := range strings.Split(path, ".") {
		name, _, _ := strings.Cut(segment, "[")

		t = deref(t)
		if t == nil || t.Kind() != reflect.Struct {
			return nil
		}
		field, ok := fieldByJSONName(t, name)
		if !ok {
			return nil
		}
		t = field.Type

		for n := strings.Count(segment, "["); n > 0; n-- {
			t = deref(t)
			switch t.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				t = t.Elem()
			default:
				return nil
			}
		}
	}
	return t
}

func fieldByJSONName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if strings.EqualFold(jsonFieldName(field), name) {
			return field, true
		}
	}
	return reflect.StructField{}, false
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeViolation(path string, t reflect.Type) string {
	t = deref(t)
	if t == nil {
		return path + " has an invalid value"
	}

	switch t {
	case durationType:
		return path + " must be a duration string"
	case timeType:
		return path + " must be a valid ISO 8601 date string"
	}

	switch {
	case isSignedKind(t.Kind()), isUnsignedKind(t.Kind()):
		return path + " must be an integer number"
	}

	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return path + " must be a number"
	case reflect.Bool:
		return path + " must be a boolean value"
	case reflect.String:
		return path + " must be a string"
	case reflect.Slice, reflect.Array:
		return path + " must be an array"
	case reflect.Struct, reflect.Map:
		return path + " must be an object"
	}
	return path + " has an invalid value"
}
