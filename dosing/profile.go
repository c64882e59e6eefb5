package dosing

import (
	"fmt"
	"strings"
)

// Sex is recorded with the profile but no current formula reads it.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// ParseSex accepts "male"/"female" in any case, plus "m"/"f".
func ParseSex(s string) (Sex, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, true
	case "female", "f":
		return Female, true
	}
	return "", false
}

// Valid reports whether s is male or female.
func (s Sex) Valid() bool {
	return s == Male || s == Female
}

// Profile holds the patient covariates for one calculation.
type Profile struct {
	Age    int     `json:"age"`    // years
	Weight float64 `json:"weight"` // kg
	Height int     `json:"height"` // cm
	Sex    Sex     `json:"sex"`
	ASA    int     `json:"asa"` // ASA physical status 1-5
}

const (
	minASA = 1
	maxASA = 5
)

// Upper bounds on the covariates keep every computed dose and the BMI finite.
const (
	MaxWeight = 1000.0 // kg
	MaxHeight = 300    // cm
)

// Validate checks the profile before any dose is computed. It returns a
// *ValidationError naming every failed field.
func (p Profile) Validate() error {
	verr := &ValidationError{}

	if !validWeight(p.Weight) {
		verr.Add("weight", fmt.Sprintf("must be a number greater than 0 and at most %g", MaxWeight))
	}
	if p.Age < 0 {
		verr.Add("age", "must not be negative")
	}
	if p.Height <= 0 || p.Height > MaxHeight {
		verr.Add("height", fmt.Sprintf("must be greater than 0 and at most %d", MaxHeight))
	}
	if p.ASA < minASA || p.ASA > maxASA {
		verr.Add("asa", "must be between 1 and 5")
	}
	if !p.Sex.Valid() {
		verr.Add("sex", "must be male or female")
	}

	return verr.ErrOrNil()
}

// BMI returns weight / height² in kg/m². It is informational only.
func (p Profile) BMI() float64 {
	meters := float64(p.Height) / 100
	if meters <= 0 || !validWeight(p.Weight) {
		return 0
	}
	if bmi := p.Weight / (meters * meters); finite(bmi) {
		return bmi
	}
	return 0
}

func validWeight(w float64) bool {
	return w > 0 && w <= MaxWeight
}
