package patient

import (
	"strings"
	"time"
	"unicode"

	"github.com/ampara/clinic/pkg/optional"
)

const (
	DefaultStatus            = "Under Review"
	DefaultCity              = "Araxá"
	DefaultState             = "MG"
	DefaultTreatmentLocation = "Hospital de Araxá"
)

// Patient is a person assisted by the clinic, stored in the patients
// collection.
type Patient struct {
	ID                string              `json:"id" bson:"_id"`
	Name              string              `json:"name" bson:"name"`
	CPF               string              `json:"cpf" bson:"cpf"`
	RG                string              `json:"rg,omitempty" bson:"rg,omitempty"`
	BirthDate         time.Time           `json:"birthDate" bson:"birthDate"`
	Gender            string              `json:"gender" bson:"gender"`
	MaritalStatus     string              `json:"maritalStatus,omitempty" bson:"maritalStatus,omitempty"`
	Phone             string              `json:"phone" bson:"phone"`
	SecondaryPhone    string              `json:"secondaryPhone,omitempty" bson:"secondaryPhone,omitempty"`
	Email             string              `json:"email,omitempty" bson:"email,omitempty"`
	Address           *Address            `json:"address,omitempty" bson:"address,omitempty"`
	Cancer            *Cancer             `json:"cancer,omitempty" bson:"cancer,omitempty"`
	MedicalHistory    MedicalHistory      `json:"medicalHistory" bson:"medicalHistory"`
	Medications       []Medication        `json:"medications" bson:"medications"`
	SUSCard           string              `json:"susCard,omitempty" bson:"susCard,omitempty"`
	HospitalCard      string              `json:"hospitalCard,omitempty" bson:"hospitalCard,omitempty"`
	FamilyIncome      *float64            `json:"familyIncome,omitempty" bson:"familyIncome,omitempty"`
	NumberOfResidents *int                `json:"numberOfResidents,omitempty" bson:"numberOfResidents,omitempty"`
	FamilyComposition []FamilyComposition `json:"familyComposition" bson:"familyComposition"`
	RegistrationDate  time.Time           `json:"registrationDate" bson:"registrationDate"`
	LastReviewDate    *time.Time          `json:"lastReviewDate,omitempty" bson:"lastReviewDate,omitempty"`
	NextReviewDate    *time.Time          `json:"nextReviewDate,omitempty" bson:"nextReviewDate,omitempty"`
	Status            string              `json:"status" bson:"status"`
	Active            bool                `json:"active" bson:"active"`
	TreatmentYear     *int                `json:"treatmentYear,omitempty" bson:"treatmentYear,omitempty"`
	FiveYears         bool                `json:"fiveYears" bson:"fiveYears"`
	DeathDate         *time.Time          `json:"deathDate,omitempty" bson:"deathDate,omitempty"`
	AuthorizeImage    bool                `json:"authorizeImage" bson:"authorizeImage"`
	Notes             string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Documents         Documents           `json:"documents" bson:"documents"`
	RegisteredByID    string              `json:"registeredById,omitempty" bson:"registeredById,omitempty"`
}

type Address struct {
	Street       string `json:"street" bson:"street"`
	Number       string `json:"number,omitempty" bson:"number,omitempty"`
	Complement   string `json:"complement,omitempty" bson:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" bson:"neighborhood"`
	City         string `json:"city" bson:"city"`
	State        string `json:"state" bson:"state"`
	ZipCode      string `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
}

func (a *Address) applyDefaults() {
	if a.City == "" {
		a.City = DefaultCity
	}
	if a.State == "" {
		a.State = DefaultState
	}
}

type Cancer struct {
	Type               string     `json:"type" bson:"type"`
	DetectionDate      *time.Time `json:"detectionDate,omitempty" bson:"detectionDate,omitempty"`
	Stage              string     `json:"stage,omitempty" bson:"stage,omitempty"`
	TreatmentLocation  string     `json:"treatmentLocation" bson:"treatmentLocation"`
	TreatmentStartDate *time.Time `json:"treatmentStartDate,omitempty" bson:"treatmentStartDate,omitempty"`
	CurrentTreatment   string     `json:"currentTreatment,omitempty" bson:"currentTreatment,omitempty"`
	HasBiopsyResult    bool       `json:"hasBiopsyResult" bson:"hasBiopsyResult"`
}

type MedicalHistory struct {
	Diabetes       bool   `json:"diabetes" bson:"diabetes"`
	Hypertension   bool   `json:"hypertension" bson:"hypertension"`
	Cholesterol    bool   `json:"cholesterol" bson:"cholesterol"`
	Triglycerides  bool   `json:"triglycerides" bson:"triglycerides"`
	KidneyProblems bool   `json:"kidneyProblems" bson:"kidneyProblems"`
	Anxiety        bool   `json:"anxiety" bson:"anxiety"`
	HeartAttack    bool   `json:"heartAttack" bson:"heartAttack"`
	Others         string `json:"others,omitempty" bson:"others,omitempty"`
}

type Medication struct {
	Name      string `json:"name" bson:"name"`
	Dosage    string `json:"dosage,omitempty" bson:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty" bson:"frequency,omitempty"`
}

type FamilyComposition struct {
	Name         string   `json:"name" bson:"name"`
	Relationship string   `json:"relationship,omitempty" bson:"relationship,omitempty"`
	Age          *int     `json:"age,omitempty" bson:"age,omitempty"`
	Income       *float64 `json:"income,omitempty" bson:"income,omitempty"`
	Profession   string   `json:"profession,omitempty" bson:"profession,omitempty"`
}

// Documents records which paper documents were handed in.
type Documents struct {
	Identity            bool `json:"identity" bson:"identity"`
	CPFDoc              bool `json:"cpfDoc" bson:"cpfDoc"`
	MarriageCertificate bool `json:"marriageCertificate" bson:"marriageCertificate"`
	MedicalReport       bool `json:"medicalReport" bson:"medicalReport"`
	RecentExams         bool `json:"recentExams" bson:"recentExams"`
	AddressProof        bool `json:"addressProof" bson:"addressProof"`
	IncomeProof         bool `json:"incomeProof" bson:"incomeProof"`
	HospitalCardDoc     bool `json:"hospitalCardDoc" bson:"hospitalCardDoc"`
	SUSCardDoc          bool `json:"susCardDoc" bson:"susCardDoc"`
	BiopsyResultDoc     bool `json:"biopsyResultDoc" bson:"biopsyResultDoc"`
}

type CreateRequest struct {
	Name              string              `json:"name"`
	CPF               string              `json:"cpf"`
	RG                string              `json:"rg"`
	BirthDate         *time.Time          `json:"birthDate"`
	Gender            string              `json:"gender"`
	MaritalStatus     string              `json:"maritalStatus"`
	Phone             string              `json:"phone"`
	SecondaryPhone    string              `json:"secondaryPhone"`
	Email             string              `json:"email"`
	Address           *Address            `json:"address"`
	Cancer            *Cancer             `json:"cancer"`
	MedicalHistory    *MedicalHistory     `json:"medicalHistory"`
	Medications       []Medication        `json:"medications"`
	SUSCard           string              `json:"susCard"`
	HospitalCard      string              `json:"hospitalCard"`
	FamilyIncome      *float64            `json:"familyIncome"`
	NumberOfResidents *int                `json:"numberOfResidents"`
	FamilyComposition []FamilyComposition `json:"familyComposition"`
	Status            string              `json:"status"`
	Active            *bool               `json:"active"`
	TreatmentYear     *int                `json:"treatmentYear"`
	FiveYears         bool                `json:"fiveYears"`
	DeathDate         *time.Time          `json:"deathDate"`
	AuthorizeImage    bool                `json:"authorizeImage"`
	Notes             string              `json:"notes"`
	Documents         *Documents          `json:"documents"`
}

// UpdateRequest is a patch. Absent fields are untouched, fields sent as ""
// are cleared, and required fields reject "".
type UpdateRequest struct {
	Name              optional.Value[string]              `json:"name"`
	CPF               optional.Value[string]              `json:"cpf"`
	RG                optional.Value[string]              `json:"rg"`
	BirthDate         optional.Value[time.Time]           `json:"birthDate"`
	Gender            optional.Value[string]              `json:"gender"`
	MaritalStatus     optional.Value[string]              `json:"maritalStatus"`
	Phone             optional.Value[string]              `json:"phone"`
	SecondaryPhone    optional.Value[string]              `json:"secondaryPhone"`
	Email             optional.Value[string]              `json:"email"`
	Address           optional.Value[Address]             `json:"address"`
	Cancer            optional.Value[CancerPatch]         `json:"cancer"`
	MedicalHistory    optional.Value[MedicalHistory]      `json:"medicalHistory"`
	Medications       optional.Value[[]Medication]        `json:"medications"`
	SUSCard           optional.Value[string]              `json:"susCard"`
	HospitalCard      optional.Value[string]              `json:"hospitalCard"`
	FamilyIncome      optional.Value[float64]             `json:"familyIncome"`
	NumberOfResidents optional.Value[int]                 `json:"numberOfResidents"`
	FamilyComposition optional.Value[[]FamilyComposition] `json:"familyComposition"`
	Status            optional.Value[string]              `json:"status"`
	Active            optional.Value[bool]                `json:"active"`
	TreatmentYear     optional.Value[int]                 `json:"treatmentYear"`
	FiveYears         optional.Value[bool]                `json:"fiveYears"`
	DeathDate         optional.Value[time.Time]           `json:"deathDate"`
	AuthorizeImage    optional.Value[bool]                `json:"authorizeImage"`
	Notes             optional.Value[string]              `json:"notes"`
	Documents         optional.Value[Documents]           `json:"documents"`
}

// CancerPatch is merged into the stored cancer record field by field.
type CancerPatch struct {
	Type               optional.Value[string]    `json:"type"`
	DetectionDate      optional.Value[time.Time] `json:"detectionDate"`
	Stage              optional.Value[string]    `json:"stage"`
	TreatmentLocation  optional.Value[string]    `json:"treatmentLocation"`
	TreatmentStartDate optional.Value[time.Time] `json:"treatmentStartDate"`
	CurrentTreatment   optional.Value[string]    `json:"currentTreatment"`
	HasBiopsyResult    optional.Value[bool]      `json:"hasBiopsyResult"`
}

// NormalizeCPF keeps only the digits of a CPF.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
