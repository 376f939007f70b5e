package loganalytics

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxLogTypeLength is the longest Log-Type accepted by the Data Collector API.
const MaxLogTypeLength = 100

var logTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// allowedTypes are the non-scalar field types the Data Collector API can ingest.
var allowedTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}): true,
	reflect.TypeOf(Date{}):      true,
	reflect.TypeOf(uuid.UUID{}): true,
}

var allowedKinds = map[reflect.Kind]bool{
	reflect.String:  true,
	reflect.Bool:    true,
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.Int:     true,
	reflect.Int32:   true,
	reflect.Int64:   true,
}

const allowedTypesDescription = "string, bool, float64, int32, int64, time.Time, loganalytics.Date and uuid.UUID"

type recordField struct {
	name      string
	typ       reflect.Type  // nil for a nil value held in an interface
	value     reflect.Value // invalid when typ is nil
	omitEmpty bool
}

// IsValidLogType reports whether logType contains only letters, digits and underscores.
func IsValidLogType(logType string) bool {
	return logTypePattern.MatchString(logType)
}

func validateLogType(logType string) error {
	if logType == "" {
		return invalidArgument("logType", "cannot be empty")
	}
	if n := utf8.RuneCountInString(logType); n > MaxLogTypeLength {
		return outOfRange("logType", n, fmt.Sprintf("the size limit is %d characters", MaxLogTypeLength))
	}
	if !IsValidLogType(logType) {
		return outOfRange("logType", logType, "log type can only contain letters, numbers, and underscore")
	}
	return nil
}

// ValidateRecord checks that record is a struct or map whose fields all have a
// type accepted by the Data Collector API.
func ValidateRecord(record any) error {
	_, err := recordFieldsOf(reflect.ValueOf(record))
	return err
}

// recordFieldsOf validates a record and returns its fields in serialization order.
func recordFieldsOf(v reflect.Value) ([]recordField, error) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil, invalidArgument("entity", "cannot be nil")
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, invalidArgument("entity", "cannot be nil")
	}

	var fields []recordField
	switch {
	case v.Kind() == reflect.Struct && !allowedTypes[v.Type()]:
		var err error
		if fields, err = structFields(v); err != nil {
			return nil, err
		}
	case v.Kind() == reflect.Map:
		if v.IsNil() {
			return nil, invalidArgument("entity", "cannot be nil")
		}
		if v.Type().Key().Kind() != reflect.String {
			return nil, outOfRange("entity", v.Type().String(), "map records must have string keys")
		}
		fields = mapFields(v)
	default:
		return nil, outOfRange("entity", v.Type().String(), "a record must be a struct or a map")
	}

	for _, f := range fields {
		if f.typ != nil && !isAllowedType(f.typ) {
			return nil, outOfRange(f.name, f.typ.String(), fmt.Sprintf(
				"field '%s' of entity with type '%s' is not one of the valid types: %s",
				f.name, v.Type(), allowedTypesDescription))
		}
	}
	return fields, nil
}

func isAllowedType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return allowedTypes[t] || allowedKinds[t.Kind()]
}

// structField is a struct field candidate before name conflicts are resolved.
type structField struct {
	recordField
	depth  int
	tagged bool
}

// structFields returns the fields encoding/json would write for v: exported
// fields, including those promoted through embedded structs (exported or not),
// with shallower and then tagged fields winning a name conflict. Conflicts
// encoding/json would silently drop are reported instead.
func structFields(v reflect.Value) ([]recordField, error) {
	var candidates []structField
	collectStructFields(v, 0, &candidates)

	byName := make(map[string][]int, len(candidates))
	for i, c := range candidates {
		byName[c.name] = append(byName[c.name], i)
	}

	fields := make([]recordField, 0, len(byName))
	for i, c := range candidates {
		winner, ok := dominantField(candidates, byName[c.name])
		if !ok {
			return nil, outOfRange(c.name, v.Type().String(), fmt.Sprintf(
				"entity with type '%s' has more than one field named '%s'", v.Type(), c.name))
		}
		if winner == i {
			fields = append(fields, c.recordField)
		}
	}
	return fields, nil
}

func collectStructFields(v reflect.Value, depth int, out *[]structField) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			if !sf.IsExported() && !isEmbeddedRecord(sf.Type) {
				continue
			}
		} else if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		fv := v.Field(i)
		if sf.Anonymous && name == "" && isEmbeddedRecord(sf.Type) {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			collectStructFields(fv, depth+1, out)
			continue
		}

		tagged := name != ""
		if !tagged {
			name = sf.Name
		}
		*out = append(*out, structField{
			recordField: recordField{
				name:      name,
				typ:       sf.Type,
				value:     fv,
				omitEmpty: hasOption(opts, "omitempty"),
			},
			depth:  depth,
			tagged: tagged,
		})
	}
}

// dominantField picks the field that owns a name among the candidates at indexes.
func dominantField(candidates []structField, indexes []int) (int, bool) {
	if len(indexes) == 1 {
		return indexes[0], true
	}
	minDepth := candidates[indexes[0]].depth
	for _, i := range indexes[1:] {
		if candidates[i].depth < minDepth {
			minDepth = candidates[i].depth
		}
	}
	winner, shallow, tagged := -1, 0, 0
	for _, i := range indexes {
		if candidates[i].depth != minDepth {
			continue
		}
		shallow++
		if candidates[i].tagged {
			tagged++
			winner = i
		}
		if shallow == 1 && !candidates[i].tagged {
			winner = i
		}
	}
	if shallow == 1 || tagged == 1 {
		return winner, true
	}
	return -1, false
}

func isEmbeddedRecord(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !allowedTypes[t]
}

func hasOption(opts, option string) bool {
	for _, o := range strings.Split(opts, ",") {
		if o == option {
			return true
		}
	}
	return false
}

func mapFields(v reflect.Value) []recordField {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	dynamic := v.Type().Elem().Kind() == reflect.Interface
	fields := make([]recordField, 0, len(keys))
	for _, k := range keys {
		mv := v.MapIndex(k)
		f := recordField{name: k.String(), typ: mv.Type(), value: mv}
		if dynamic {
			if mv.IsNil() {
				f.typ, f.value = nil, reflect.Value{}
			} else {
				f.value = mv.Elem()
				f.typ = f.value.Type()
			}
		}
		fields = append(fields, f)
	}
	return fields
}
