package metabolic

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// FallbackBMR is used when biometrics are missing or unparseable.
	FallbackBMR = 1500.0

	secondsPerDay = 86400.0
	kgPerLb       = 0.453592
	cmPerInch     = 2.54
)

var (
	feetRegex   = regexp.MustCompile(`(\d+)'`)
	inchesRegex = regexp.MustCompile(`(\d+)"`)
)

type Biometrics struct {
	Gender string
	// Weight in pounds, as entered by the user (e.g. "175").
	Weight string
	// Height in feet and inches (e.g. 5'11").
	Height string
	Age    int
}

// BMR returns the Harris-Benedict basal metabolic rate in kcal/day.
func BMR(gender string, weightKg, heightCm, age float64) float64 {
	if !valid(weightKg) || !valid(heightCm) || !valid(age) {
		return FallbackBMR
	}
	if strings.EqualFold(strings.TrimSpace(gender), "male") {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*age
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*age
}

// BMI returns weight / height^2 rounded to one decimal place, or 0 on invalid input.
func BMI(weightKg, heightM float64) float64 {
	if !valid(weightKg) || !valid(heightM) {
		return 0
	}
	return math.Round(weightKg/(heightM*heightM)*10) / 10
}

// CalorieRate is the unrounded kcal burned per second at the given intensity.
func CalorieRate(bmr, met float64) float64 {
	if !valid(bmr) || !valid(met) {
		return 0
	}
	return bmr / secondsPerDay * met
}

func CaloriesForDuration(bmr, met float64, seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(CalorieRate(bmr, met) * float64(seconds)))
}

// ParseHeight converts a feet'inches" string into centimeters; 0 if nothing matches.
func ParseHeight(height string) float64 {
	var feet, inches int
	if m := feetRegex.FindStringSubmatch(height); m != nil {
		feet, _ = strconv.Atoi(m[1])
	}
	if m := inchesRegex.FindStringSubmatch(height); m != nil {
		inches, _ = strconv.Atoi(m[1])
	}
	return float64(feet*12+inches) * cmPerInch
}

// ParseWeightLbs converts a pounds string into kilograms; 0 if unparseable.
func ParseWeightLbs(weight string) float64 {
	lbs, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil || !valid(lbs) {
		return 0
	}
	return lbs * kgPerLb
}

// FromBiometrics derives BMR and BMI from the raw profile values.
func FromBiometrics(b Biometrics) (bmr, bmi float64) {
	weightKg := ParseWeightLbs(b.Weight)
	heightCm := ParseHeight(b.Height)
	bmr = BMR(b.Gender, weightKg, heightCm, float64(b.Age))
	bmi = BMI(weightKg, heightCm/100)
	return bmr, bmi
}

func valid(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
