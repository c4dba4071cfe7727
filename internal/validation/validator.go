package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

const defaultMaxBodyBytes = 1 << 20

// Options selects the policies applied to incoming payloads.
type Options struct {
	// Whitelist drops fields the target struct does not declare.
	Whitelist bool
	// ForbidNonWhitelisted rejects payloads carrying undeclared fields.
	// It only applies together with Whitelist.
	ForbidNonWhitelisted bool
	// ImplicitConversion coerces text values ("42", "true", "1s") into the
	// declared field types.
	ImplicitConversion bool
	// MaxBodyBytes caps JSON bodies. Zero or negative means 1 MiB.
	MaxBodyBytes int64
}

// DefaultOptions enables every policy.
func DefaultOptions() Options {
	return Options{
		Whitelist:            true,
		ForbidNonWhitelisted: true,
		ImplicitConversion:   true,
		MaxBodyBytes:         defaultMaxBodyBytes,
	}
}

// Validator decodes request input into typed structs and checks it.
// It is safe for concurrent use.
type Validator struct {
	opts     Options
	validate *validator.Validate
}

// New builds a Validator with the given options.
func New(opts Options) *Validator {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	return &Validator{
		opts:     opts,
		validate: validate,
	}
}

// Options returns the policies the validator was built with.
func (v *Validator) Options() Options {
	return v.opts
}

// DecodeJSON decodes the request body, which must be a JSON object, into dst.
// An empty body is treated as an empty object.
func (v *Validator) DecodeJSON(r *http.Request, dst any) error {
	input := map[string]any{}

	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, v.opts.MaxBodyBytes+1))
		if err != nil {
			return fmt.Errorf("read request body: %w", err)
		}
		if int64(len(data)) > v.opts.MaxBodyBytes {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, v.opts.MaxBodyBytes)
		}

		if len(bytes.TrimSpace(data)) > 0 {
			obj, err := parseObject(data)
			if err != nil {
				return err
			}
			input = obj
		}
	}

	return v.Decode(input, dst)
}

// DecodeQuery decodes the URL query string into dst. Repeated keys become lists.
func (v *Validator) DecodeQuery(r *http.Request, dst any) error {
	query := r.URL.Query()
	input := make(map[string]any, len(query))
	for key, values := range query {
		if len(values) == 1 {
			input[key] = values[0]
			continue
		}
		input[key] = values
	}
	return v.Decode(input, dst)
}

// DecodeParams decodes the chi URL path parameters of r into dst.
func (v *Validator) DecodeParams(r *http.Request, dst any) error {
	input := map[string]any{}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "*" || i >= len(rctx.URLParams.Values) {
				continue
			}
			input[key] = rctx.URLParams.Values[i]
		}
	}
	return v.Decode(input, dst)
}

// Decode maps input onto dst, which must be a pointer, using the json tags of
// the target type, then runs its `validate` constraints.
func (v *Validator) Decode(input map[string]any, dst any) error {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: v.opts.ImplicitConversion,
		Metadata:         &md,
		Result:           dst,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			integerHook(v.opts.ImplicitConversion),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return newError(decodeViolations(err, dst)...)
	}

	if v.opts.Whitelist && v.opts.ForbidNonWhitelisted && len(md.Unused) > 0 {
		unused := append([]string(nil), md.Unused...)
		sort.Strings(unused)
		violations := make([]string, 0, len(unused))
		for _, key := range unused {
			violations = append(violations, fmt.Sprintf("property %s should not exist", key))
		}
		return newError(violations...)
	}

	return v.Struct(dst)
}

// Struct runs the `validate` tag constraints of a struct (or pointer to one).
// Other kinds are accepted as is.
func (v *Validator) Struct(dst any) error {
	value := reflect.Indirect(reflect.ValueOf(dst))
	if value.Kind() != reflect.Struct {
		return nil
	}

	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		violations := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			violations = append(violations, describe(fe))
		}
		return newError(violations...)
	}

	return fmt.Errorf("validate: %w", err)
}

func parseObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, newError("request body must be a valid JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newError("request body must contain a single JSON object")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, newError("request body must be a valid JSON object")
	}
	return obj, nil
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

// describe renders a constraint failure using the field's path without the
// root struct name, e.g. "author.name".
func describe(fe validator.FieldError) string {
	field := fe.Field()
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return field + " should not be empty"
	case "min", "gte":
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of the following values: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be an email"
	}

	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s must satisfy %s", field, fe.Tag())
}
