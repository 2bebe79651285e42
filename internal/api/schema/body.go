package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// MaxBodySize is the maximum accepted request body size
const MaxBodySize = 1 << 20

// Validatable is implemented by enum types that can check their own value
type Validatable interface {
	Valid() bool
}

var (
	issueInvalidJSON = func(err string) *Issue {
		return &Issue{
			Loc:  []any{"body"},
			Msg:  "JSON decode error: " + err,
			Type: "json_invalid",
		}
	}
	issueInvalidType = func(name, expectedType string) *Issue {
		return &Issue{
			Loc:  location("body", name),
			Msg:  fmt.Sprintf("Input should be a valid %s", expectedType),
			Type: "type_error",
		}
	}
	issueMissing = func(name string) *Issue {
		return &Issue{
			Loc:  location("body", name),
			Msg:  "Field required",
			Type: "missing",
		}
	}
	issueInvalidValue = func(name string, value any) *Issue {
		return &Issue{
			Loc:  location("body", name),
			Msg:  fmt.Sprintf("Input '%v' is not a permitted value", value),
			Type: "enum",
		}
	}
	issueNumberOutOfRange = func(name string, value, min, max int64) *Issue {
		msg := fmt.Sprintf("Input should be less than or equal to %d", max)
		if value < min {
			msg = fmt.Sprintf("Input should be greater than or equal to %d", min)
		}
		return &Issue{
			Loc:  location("body", name),
			Msg:  msg,
			Type: "out_of_range",
		}
	}
)

// location builds an issue location out of a source and a dotted field path
func location(source, path string) []any {
	loc := []any{source}
	if path == "" {
		return loc
	}
	for _, part := range strings.Split(path, ".") {
		loc = append(loc, part)
	}
	return loc
}

// UnmarshalBody parses and decodes a JSON request body and performs validations on it.
// Fields are validated using their struct tags: 'required:"true"' rejects missing (nil) values, 'min' and 'max' bound
// integers, and values implementing Validatable have to be valid.
func UnmarshalBody[T any](request *http.Request) (*T, []*Issue, error) {
	body, err := io.ReadAll(io.LimitReader(request.Body, MaxBodySize))
	if err != nil {
		return nil, nil, err
	}

	target := new(T)
	if err := json.Unmarshal(body, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, []*Issue{issueInvalidType(typeErr.Field, typeErr.Type.String())}, nil
		}
		return nil, []*Issue{issueInvalidJSON(err.Error())}, nil
	}

	issues, err := validateStruct("", target)
	if err != nil {
		return nil, nil, err
	}
	return target, issues, nil
}

func validateStruct(fieldPrefix string, val any) ([]*Issue, error) {
	typ := reflect.TypeOf(val)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, errors.New("illegal call to validateStruct with non-struct parameter")
	}
	ref := reflect.ValueOf(val)
	if ref.Kind() == reflect.Pointer {
		ref = ref.Elem()
	}

	var issues []*Issue

	for i := 0; i < typ.NumField(); i++ {
		// Retrieve the validation requirements
		fieldDef := typ.Field(i)
		if !fieldDef.IsExported() {
			continue
		}
		required := strings.EqualFold(fieldDef.Tag.Get("required"), "true")
		min, err := strconv.ParseInt(fieldDef.Tag.Get("min"), 10, 64)
		if err != nil {
			min = math.MinInt64
		}
		max, err := strconv.ParseInt(fieldDef.Tag.Get("max"), 10, 64)
		if err != nil {
			max = math.MaxInt64
		}

		fieldName := fieldPrefix + getFieldName(fieldDef)

		// Perform all validations on the field
		field := ref.Field(i)
		if isNil(field) {
			if required {
				issues = append(issues, issueMissing(fieldName))
			}
			continue
		}
		if validatable, ok := field.Interface().(Validatable); ok && !validatable.Valid() {
			issues = append(issues, issueInvalidValue(fieldName, reflect.Indirect(field).Interface()))
			continue
		}
		if field.Kind() == reflect.Pointer {
			field = field.Elem()
		}
		if field.CanUint() {
			val := int64(field.Uint())
			if val < min || val > max {
				issues = append(issues, issueNumberOutOfRange(fieldName, val, min, max))
			}
		} else if field.CanInt() {
			val := field.Int()
			if val < min || val > max {
				issues = append(issues, issueNumberOutOfRange(fieldName, val, min, max))
			}
		} else if field.Kind() == reflect.Struct && isPayload(field) {
			subIssues, err := validateStruct(fieldName+".", field.Interface())
			if err != nil {
				return nil, err
			}
			issues = append(issues, subIssues...)
		}
	}

	return issues, nil
}

// isPayload reports whether a struct field is a nested payload that should be validated recursively.
// Foreign struct types like time.Time are treated as plain values.
func isPayload(field reflect.Value) bool {
	for i := 0; i < field.NumField(); i++ {
		if _, ok := field.Type().Field(i).Tag.Lookup("json"); ok {
			return true
		}
	}
	return false
}

func isNil(field reflect.Value) bool {
	switch field.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return field.IsNil()
	default:
		return false
	}
}

func getFieldName(def reflect.StructField) string {
	jsonVal, ok := def.Tag.Lookup("json")
	if !ok || jsonVal == "-" {
		return def.Name
	}
	name, _, _ := strings.Cut(jsonVal, ",")
	return name
}
