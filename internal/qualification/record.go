package qualification

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/yoockh/floorscreen/internal/interview"
)

// Record is the typed qualification snapshot of one candidate. Every field is
// optional; nil means "not known yet", never "false".
//
// Keys are accepted in snake_case (the json name) or in the camelCase alias
// carried by the extract tag, which is what the language model returns.
type Record struct {
	FullName  *string `json:"full_name,omitempty" bson:"full_name,omitempty" extract:"fullName"`
	FirstName *string `json:"first_name,omitempty" bson:"first_name,omitempty" extract:"firstName"`
	LastName  *string `json:"last_name,omitempty" bson:"last_name,omitempty" extract:"lastName"`
	Email     *string `json:"email,omitempty" bson:"email,omitempty" extract:"email"`
	Phone     *string `json:"phone,omitempty" bson:"phone,omitempty" extract:"phone"`

	YearsOfExperience   *int     `json:"years_of_experience,omitempty" bson:"years_of_experience,omitempty" extract:"yearsOfExperience"`
	FlooringSkills      []string `json:"flooring_skills,omitempty" bson:"flooring_skills,omitempty" extract:"flooringSkills"`
	FlooringSpecialties []string `json:"flooring_specialties,omitempty" bson:"flooring_specialties,omitempty" extract:"flooringSpecialties"`

	HasOwnCrew       *bool   `json:"has_own_crew,omitempty" bson:"has_own_crew,omitempty" extract:"hasOwnCrew"`
	CrewSize         *int    `json:"crew_size,omitempty" bson:"crew_size,omitempty" extract:"crewSize"`
	HasOwnTools      *bool   `json:"has_own_tools,omitempty" bson:"has_own_tools,omitempty" extract:"hasOwnTools"`
	ToolsDescription *string `json:"tools_description,omitempty" bson:"tools_description,omitempty" extract:"toolsDescription"`

	HasInsurance               *bool   `json:"has_insurance,omitempty" bson:"has_insurance,omitempty" extract:"hasInsurance"`
	HasGeneralLiability        *bool   `json:"has_general_liability,omitempty" bson:"has_general_liability,omitempty" extract:"hasGeneralLiability"`
	HasCommercialAutoLiability *bool   `json:"has_commercial_auto_liability,omitempty" bson:"has_commercial_auto_liability,omitempty" extract:"hasCommercialAutoLiability"`
	HasWorkersComp             *bool   `json:"has_workers_comp,omitempty" bson:"has_workers_comp,omitempty" extract:"hasWorkersComp"`
	HasWorkersCompExemption    *bool   `json:"has_workers_comp_exemption,omitempty" bson:"has_workers_comp_exemption,omitempty" extract:"hasWorkersCompExemption"`
	InsuranceType              *string `json:"insurance_type,omitempty" bson:"insurance_type,omitempty" extract:"insuranceType"`

	HasLicense         *bool   `json:"has_license,omitempty" bson:"has_license,omitempty" extract:"hasLicense"`
	LicenseInfo        *string `json:"license_info,omitempty" bson:"license_info,omitempty" extract:"licenseInfo"`
	HasBusinessLicense *bool   `json:"has_business_license,omitempty" bson:"has_business_license,omitempty" extract:"hasBusinessLicense"`
	IsSunbizRegistered *bool   `json:"is_sunbiz_registered,omitempty" bson:"is_sunbiz_registered,omitempty" extract:"isSunbizRegistered"`
	IsSunbizActive     *bool   `json:"is_sunbiz_active,omitempty" bson:"is_sunbiz_active,omitempty" extract:"isSunbizActive"`

	CanPassBackgroundCheck *bool   `json:"can_pass_background_check,omitempty" bson:"can_pass_background_check,omitempty" extract:"canPassBackgroundCheck"`
	BackgroundCheckDetails *string `json:"background_check_details,omitempty" bson:"background_check_details,omitempty" extract:"backgroundCheckDetails"`

	MondayToFridayAvailability *string `json:"monday_to_friday_availability,omitempty" bson:"monday_to_friday_availability,omitempty" extract:"mondayToFridayAvailability"`
	SaturdayAvailability       *string `json:"saturday_availability,omitempty" bson:"saturday_availability,omitempty" extract:"saturdayAvailability"`

	OpenToTravel    *bool    `json:"open_to_travel,omitempty" bson:"open_to_travel,omitempty" extract:"openToTravel"`
	TravelLocations []string `json:"travel_locations,omitempty" bson:"travel_locations,omitempty" extract:"travelLocations"`

	AdditionalNotes *string `json:"additional_notes,omitempty" bson:"additional_notes,omitempty" extract:"additionalNotes"`
}

type fieldInfo struct {
	index int
	name  string // json / bson name
	alias string
}

var (
	fieldsOnce sync.Once
	fieldList  []fieldInfo
	fieldByKey map[string]fieldInfo
)

func fields() ([]fieldInfo, map[string]fieldInfo) {
	fieldsOnce.Do(func() {
		t := reflect.TypeOf(Record{})
		fieldByKey = make(map[string]fieldInfo, t.NumField()*2)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			fi := fieldInfo{index: i, name: name, alias: sf.Tag.Get("extract")}
			fieldList = append(fieldList, fi)
			fieldByKey[fi.name] = fi
			if fi.alias != "" {
				fieldByKey[fi.alias] = fi
			}
		}
	})
	return fieldList, fieldByKey
}

// FieldNames lists the snake_case names of every known field.
func FieldNames() []string {
	list, _ := fields()
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.name
	}
	return out
}

// KnownField reports whether key (snake_case or camelCase) names a field.
func KnownField(key string) bool {
	_, byKey := fields()
	_, ok := byKey[key]
	return ok
}

// Decode builds a Record from a loosely typed map such as a model's
// extractedInfo. Values that cannot be normalised are left absent. Unknown
// keys are dropped and returned, sorted, so callers can log them.
func Decode(m map[string]any) (Record, []string) {
	_, byKey := fields()
	var rec Record
	var ignored []string

	rv := reflect.ValueOf(&rec).Elem()
	for key, raw := range m {
		fi, ok := byKey[key]
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		setValue(rv.Field(fi.index), raw)
	}
	sort.Strings(ignored)
	return rec, ignored
}

// DecodeJSON is Decode for a raw JSON object. Malformed input yields an empty
// record and the parse error; callers are expected to carry on with it.
func DecodeJSON(data []byte) (Record, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Record{}, nil, fmt.Errorf("decode qualification json: %w", err)
	}
	rec, ignored := Decode(m)
	return rec, ignored, nil
}

func setValue(dst reflect.Value, raw any) {
	if raw == nil {
		return
	}
	switch dst.Type() {
	case reflect.TypeOf((*string)(nil)):
		if s, ok := toString(raw); ok {
			dst.Set(reflect.ValueOf(&s))
		}
	case reflect.TypeOf((*bool)(nil)):
		if b, ok := toBool(raw); ok {
			dst.Set(reflect.ValueOf(&b))
		}
	case reflect.TypeOf((*int)(nil)):
		if n, ok := toInt(raw); ok {
			dst.Set(reflect.ValueOf(&n))
		}
	case reflect.TypeOf([]string(nil)):
		if list := NormalizeList(raw); len(list) > 0 {
			dst.Set(reflect.ValueOf(list))
		}
	}
}

func toString(raw any) (string, bool) {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case bool:
		s = strconv.FormatBool(v)
	case []any, []string:
		s = strings.Join(NormalizeList(v), ", ")
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		return interview.InterpretBool(v)
	default:
		return false, false
	}
}

func toInt(raw any) (int, bool) {
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		n = int(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = int(f)
	case string:
		var ok bool
		if n, ok = firstInt(v); !ok {
			return 0, false
		}
	default:
		return 0, false
	}
	if n < 0 {
		return 0, false
	}
	return n, true
}

// firstInt returns the first run of digits in s, so "about 12 years" is 12.
func firstInt(s string) (int, bool) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	return n, err == nil
}

// NormalizeList turns an array or a comma separated string into trimmed,
// non-empty entries. A lone "None" counts as no selection.
func NormalizeList(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
	default:
		return nil
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 1 && strings.EqualFold(out[0], "none") {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge returns r overlaid with every field that is set in other.
func (r Record) Merge(other Record) Record {
	list, _ := fields()
	dst := reflect.ValueOf(&r).Elem()
	src := reflect.ValueOf(other)
	for _, f := range list {
		if v := src.Field(f.index); !v.IsNil() {
			dst.Field(f.index).Set(v)
		}
	}
	return r
}

// SetFields returns the set fields as dotted keys under prefix, ready for a
// Mongo $set so concurrent partial updates never replace the whole document.
func (r Record) SetFields(prefix string) map[string]any {
	list, _ := fields()
	rv := reflect.ValueOf(r)
	out := map[string]any{}
	for _, f := range list {
		v := rv.Field(f.index)
		if v.IsNil() {
			continue
		}
		key := f.name
		if prefix != "" {
			key = prefix + "." + key
		}
		if v.Kind() == reflect.Pointer {
			out[key] = v.Elem().Interface()
		} else {
			out[key] = v.Interface()
		}
	}
	return out
}

// IsEmpty reports whether no field is set.
func (r Record) IsEmpty() bool {
	list, _ := fields()
	rv := reflect.ValueOf(r)
	for _, f := range list {
		if !rv.Field(f.index).IsNil() {
			return false
		}
	}
	return true
}

// HasAnyInsurance reports whether any insurance flag, including the
// workers' comp exemption, is true.
func (r Record) HasAnyInsurance() bool {
	return isTrue(r.HasInsurance) ||
		isTrue(r.HasGeneralLiability) ||
		isTrue(r.HasCommercialAutoLiability) ||
		isTrue(r.HasWorkersComp) ||
		isTrue(r.HasWorkersCompExemption)
}

// WithImpliedInsurance sets HasInsurance when a concrete policy flag is true.
func (r Record) WithImpliedInsurance() Record {
	if isTrue(r.HasGeneralLiability) || isTrue(r.HasCommercialAutoLiability) || isTrue(r.HasWorkersComp) {
		t := true
		r.HasInsurance = &t
	}
	return r
}

// Skills prefers the flooring skills list and falls back to specialties.
func (r Record) Skills() []string {
	if len(r.FlooringSkills) > 0 {
		return r.FlooringSkills
	}
	return r.FlooringSpecialties
}

func isTrue(b *bool) bool { return b != nil && *b }
