package qualification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNormalisesLooseValues(t *testing.T) {
	rec, ignored := Decode(map[string]any{
		"yearsOfExperience":   "about 12 years",
		"hasOwnCrew":          "Yes, I do",
		"crew_size":           float64(4),
		"hasGeneralLiability": true,
		"hasWorkersComp":      "not sure, maybe",
		"flooringSkills":      " Carpet, LVP ,, Tile ",
		"travelLocations":     []any{"Tampa", " ", "Naples"},
		"fullName":            "  Jane Doe ",
		"phone":               float64(5551234),
		"hasVehicle":          true,
		"favoriteColor":       "blue",
	})

	require.NotNil(t, rec.YearsOfExperience)
	assert.Equal(t, 12, *rec.YearsOfExperience)
	require.NotNil(t, rec.HasOwnCrew)
	assert.True(t, *rec.HasOwnCrew)
	assert.Equal(t, 4, *rec.CrewSize)
	assert.True(t, *rec.HasGeneralLiability)
	assert.Nil(t, rec.HasWorkersComp, "ambiguous answers stay absent")
	assert.Equal(t, []string{"Carpet", "LVP", "Tile"}, rec.FlooringSkills)
	assert.Equal(t, []string{"Tampa", "Naples"}, rec.TravelLocations)
	assert.Equal(t, "Jane Doe", *rec.FullName)
	assert.Equal(t, "5551234", *rec.Phone)
	assert.Equal(t, []string{"favoriteColor", "hasVehicle"}, ignored)
}

func TestDecodeDropsUnusableValues(t *testing.T) {
	rec, _ := Decode(map[string]any{
		"years_of_experience": float64(-2),
		"crewSize":            "a few",
		"flooringSkills":      "None",
		"openToTravel":        nil,
		"has_license":         map[string]any{"x": 1},
		"additionalNotes":     "   ",
	})
	assert.True(t, rec.IsEmpty())
}

func TestDecodeJSON(t *testing.T) {
	rec, ignored, err := DecodeJSON([]byte(`{"yearsOfExperience": 0, "hasInsurance": false, "extra": 1}`))
	require.NoError(t, err)
	require.NotNil(t, rec.YearsOfExperience)
	assert.Equal(t, 0, *rec.YearsOfExperience)
	require.NotNil(t, rec.HasInsurance)
	assert.False(t, *rec.HasInsurance)
	assert.Equal(t, []string{"extra"}, ignored)

	rec, _, err = DecodeJSON([]byte(`{"yearsOf`))
	assert.Error(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestMergeIsLastWriteWinsPerField(t *testing.T) {
	base := Record{YearsOfExperience: intp(3), HasOwnTools: boolp(true), FlooringSkills: []string{"Tile"}}
	patch := Record{YearsOfExperience: intp(5), HasOwnTools: nil, HasLicense: boolp(false)}

	got := base.Merge(patch)
	assert.Equal(t, 5, *got.YearsOfExperience)
	assert.True(t, *got.HasOwnTools)
	assert.False(t, *got.HasLicense)
	assert.Equal(t, []string{"Tile"}, got.FlooringSkills)

	// receiver is untouched
	assert.Equal(t, 3, *base.YearsOfExperience)
	assert.Nil(t, base.HasLicense)
}

func TestSetFields(t *testing.T) {
	rec := Record{YearsOfExperience: intp(7), TravelLocations: []string{"Tampa"}, HasWorkersComp: boolp(false)}

	assert.Equal(t, map[string]any{
		"extracted_data.years_of_experience": 7,
		"extracted_data.travel_locations":    []string{"Tampa"},
		"extracted_data.has_workers_comp":    false,
	}, rec.SetFields("extracted_data"))

	assert.Contains(t, rec.SetFields(""), "years_of_experience")
	assert.Empty(t, Record{}.SetFields("x"))
}

func TestWithImpliedInsurance(t *testing.T) {
	rec := Record{HasCommercialAutoLiability: boolp(true)}.WithImpliedInsurance()
	require.NotNil(t, rec.HasInsurance)
	assert.True(t, *rec.HasInsurance)

	rec = Record{HasWorkersCompExemption: boolp(true)}.WithImpliedInsurance()
	assert.Nil(t, rec.HasInsurance)
	assert.True(t, rec.HasAnyInsurance())
}

func TestNormalizeList(t *testing.T) {
	assert.Nil(t, NormalizeList(""))
	assert.Nil(t, NormalizeList(" none "))
	assert.Nil(t, NormalizeList(42))
	assert.Equal(t, []string{"Orlando", "Fort Myers"}, NormalizeList("Orlando,Fort Myers"))
	assert.Equal(t, []string{"a"}, NormalizeList([]string{" a ", ""}))
}

func TestFieldNames(t *testing.T) {
	names := FieldNames()
	assert.Contains(t, names, "has_workers_comp_exemption")
	assert.True(t, KnownField("isSunbizActive"))
	assert.True(t, KnownField("is_sunbiz_active"))
	assert.False(t, KnownField("has_vehicle"))
}
