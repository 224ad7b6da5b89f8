package profile

import (
	"errors"
	"strings"

	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/metabolic"
)

var (
	ErrNotFound           = errors.New("profile not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidProfile     = errors.New("invalid profile")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoFaceReference    = errors.New("no face reference image stored")
	ErrFaceMismatch       = errors.New("face not recognized")
)

// Profile holds the identity and biometrics of a user. Height is kept as
// entered (5'11") and weight in pounds.
type Profile struct {
	ID           string               `json:"id"`
	FullName     string               `json:"fullName"`
	Email        string               `json:"email"`
	Photo        string               `json:"photo,omitempty"`
	Gender       string               `json:"gender"`
	Height       string               `json:"height"`
	Weight       string               `json:"weight"`
	Age          int                  `json:"age"`
	FitnessLevel exercises.Difficulty `json:"fitnessLevel"`
	BMR          float64              `json:"bmr"`
	BMI          float64              `json:"bmi"`

	PasswordHash string `json:"passwordHash,omitempty"`
	// FaceImage is the base64 reference image used by face login.
	FaceImage string `json:"faceImage,omitempty"`
}

func (p *Profile) Biometrics() metabolic.Biometrics {
	return metabolic.Biometrics{
		Gender: p.Gender,
		Weight: p.Weight,
		Height: p.Height,
		Age:    p.Age,
	}
}

// Recompute refreshes BMR and BMI from the current biometrics.
func (p *Profile) Recompute() {
	p.BMR, p.BMI = metabolic.FromBiometrics(p.Biometrics())
}

// SessionBMR is the BMR to feed the calorie rate, falling back when biometrics are missing.
func (p *Profile) SessionBMR() float64 {
	if p == nil || p.BMR <= 0 {
		return metabolic.FallbackBMR
	}
	return p.BMR
}

// Public returns a copy without credentials, safe to send to clients.
func (p Profile) Public() Profile {
	p.PasswordHash = ""
	p.FaceImage = ""
	return p
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
