// Package validation parses user supplied patient profiles and checks the
// integrity of drug catalogs.
package validation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/giygas/anesdose/dosing"
)

// defaultASA is used when the ASA class is left blank.
const defaultASA = 1

// ProfileInput holds the raw form values of a profile.
type ProfileInput struct {
	Age    string
	Weight string
	Height string
	Sex    string
	ASA    string
}

// FromValues reads a ProfileInput from query or form values.
func FromValues(v url.Values) ProfileInput {
	return ProfileInput{
		Age:    v.Get("age"),
		Weight: v.Get("weight"),
		Height: v.Get("height"),
		Sex:    v.Get("sex"),
		ASA:    v.Get("asa"),
	}
}

// ParseProfile converts raw form values into a validated profile. Every
// problem is reported in a single *dosing.ValidationError.
func ParseProfile(in ProfileInput) (dosing.Profile, error) {
	verr := &dosing.ValidationError{}
	var p dosing.Profile

	p.Age = parseWhole(verr, "age", in.Age)
	p.Height = parseWhole(verr, "height", in.Height)

	switch w := strings.TrimSpace(in.Weight); {
	case w == "":
		verr.Add("weight", "is required")
	default:
		f, err := strconv.ParseFloat(w, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			verr.Add("weight", fmt.Sprintf("must be a number greater than 0 and at most %g", dosing.MaxWeight))
		} else {
			p.Weight = f
		}
	}

	if strings.TrimSpace(in.Sex) == "" {
		verr.Add("sex", "is required")
	} else if sex, ok := dosing.ParseSex(in.Sex); ok {
		p.Sex = sex
	} else {
		verr.Add("sex", "must be male or female")
	}

	if strings.TrimSpace(in.ASA) == "" {
		p.ASA = defaultASA
	} else {
		p.ASA = parseWhole(verr, "asa", in.ASA)
	}

	return finish(p, verr)
}

// ProfileRequest is the JSON body of a calculation request. ASA may be
// omitted and defaults to 1.
type ProfileRequest struct {
	Age    *int     `json:"age"`
	Weight *float64 `json:"weight"`
	Height *int     `json:"height"`
	Sex    string   `json:"sex"`
	ASA    *int     `json:"asa,omitempty"`
}

// Profile validates the request and returns the profile it describes.
func (r ProfileRequest) Profile() (dosing.Profile, error) {
	verr := &dosing.ValidationError{}
	p := dosing.Profile{ASA: defaultASA}

	if r.Age == nil {
		verr.Add("age", "is required")
	} else {
		p.Age = *r.Age
	}
	if r.Weight == nil {
		verr.Add("weight", "is required")
	} else {
		p.Weight = *r.Weight
	}
	if r.Height == nil {
		verr.Add("height", "is required")
	} else {
		p.Height = *r.Height
	}
	if r.ASA != nil {
		p.ASA = *r.ASA
	}

	if strings.TrimSpace(r.Sex) == "" {
		verr.Add("sex", "is required")
	} else if sex, ok := dosing.ParseSex(r.Sex); ok {
		p.Sex = sex
	} else {
		verr.Add("sex", "must be male or female")
	}

	return finish(p, verr)
}

func parseWhole(verr *dosing.ValidationError, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.Add(field, "is required")
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(field, "must be a whole number")
		return 0
	}
	return n
}

// finish adds range violations for the fields that parsed.
func finish(p dosing.Profile, verr *dosing.ValidationError) (dosing.Profile, error) {
	if err := p.Validate(); err != nil {
		var rangeErr *dosing.ValidationError
		if errors.As(err, &rangeErr) {
			for _, v := range rangeErr.Violations {
				if !verr.Has(v.Field) {
					verr.Add(v.Field, v.Message)
				}
			}
		}
	}
	if err := verr.ErrOrNil(); err != nil {
		return dosing.Profile{}, err
	}
	return p, nil
}
