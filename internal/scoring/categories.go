// Package scoring implements the credit-risk pipeline: category decoding,
// feature engineering, income verification, vector assembly, scorer
// invocation, decision mapping, consensus and factor analysis.
package scoring

import (
	"sort"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/models"
)

// CategoryTable is a fixed bidirectional code/label table.
type CategoryTable struct {
	field  string
	labels map[int]string
	codes  map[string]int
}

func newCategoryTable(field string, labels map[int]string) *CategoryTable {
	t := &CategoryTable{field: field, labels: labels, codes: make(map[string]int, len(labels))}
	for code, label := range labels {
		t.codes[label] = code
	}
	return t
}

var (
	GenderTable = newCategoryTable("gender_code", map[int]string{
		1: "Male",
		2: "Female",
	})
	CasteTable = newCategoryTable("caste_code", map[int]string{
		1: "General",
		2: "OBC",
		3: "SC",
		4: "ST",
		5: "Other",
	})
	RegionTable = newCategoryTable("region_code", map[int]string{
		1: "North",
		2: "South",
		3: "East",
		4: "West",
		5: "Central",
	})
	EmploymentTable = newCategoryTable("employment_code", map[int]string{
		1: "Salaried",
		2: "Self-Employed",
		3: "Unemployed",
		4: "Student",
		5: "Agriculture",
	})

	genderChars = map[int]string{1: "M", 2: "F"}
)

// Decode returns the label for code.
func (t *CategoryTable) Decode(code int) (string, error) {
	label, ok := t.labels[code]
	if !ok {
		return "", errors.NewUnknownCodeError(t.field, code)
	}
	return label, nil
}

// Encode returns the code for label.
func (t *CategoryTable) Encode(label string) (int, bool) {
	code, ok := t.codes[label]
	return code, ok
}

// Codes returns the known codes in ascending order.
func (t *CategoryTable) Codes() []int {
	out := make([]int, 0, len(t.labels))
	for c := range t.labels {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// DecodeApplicant resolves every coded field. It fails on the first unknown
// code, checked in the order gender, caste, region, employment.
func DecodeApplicant(in *models.ApplicantInput) (models.DecodedCategories, error) {
	var out models.DecodedCategories
	var err error

	if out.Gender, err = GenderTable.Decode(in.GenderCode); err != nil {
		return out, err
	}
	out.GenderChar = genderChars[in.GenderCode]
	if out.Caste, err = CasteTable.Decode(in.CasteCode); err != nil {
		return out, err
	}
	if out.Region, err = RegionTable.Decode(in.RegionCode); err != nil {
		return out, err
	}
	if out.Employment, err = EmploymentTable.Decode(in.EmploymentCode); err != nil {
		return out, err
	}
	return out, nil
}
