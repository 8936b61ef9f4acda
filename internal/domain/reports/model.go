package reports

import "time"

// PatientReportRequest selects what goes into a patient report. The include
// flags default to true when omitted.
type PatientReportRequest struct {
	PatientID                 string     `json:"patientId"`
	StartDate                 *time.Time `json:"startDate"`
	EndDate                   *time.Time `json:"endDate"`
	IncludeMedicalHistory     *bool      `json:"includeMedicalHistory"`
	IncludeEvolutions         *bool      `json:"includeEvolutions"`
	IncludeAppointments       *bool      `json:"includeAppointments"`
	IncludeAnthropometricData *bool      `json:"includeAnthropometricData"`
	Comments                  string     `json:"comments"`
}

func include(flag *bool) bool {
	return flag == nil || *flag
}

// inRange reports whether t falls within the request's optional, inclusive
// bounds.
func (r PatientReportRequest) inRange(t time.Time) bool {
	if r.StartDate != nil && t.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && t.After(*r.EndDate) {
		return false
	}
	return true
}

type PatientReport struct {
	Patient            PatientInfo            `json:"patient"`
	MedicalHistory     *MedicalHistorySummary `json:"medicalHistory"`
	Evolutions         []EvolutionSummary     `json:"evolutions"`
	Appointments       []AppointmentSummary   `json:"appointments"`
	AnthropometricData []AnthropometricPoint  `json:"anthropometricData"`
	Statistics         Statistics             `json:"statistics"`
	Comments           string                 `json:"comments,omitempty"`
	GeneratedAt        time.Time              `json:"generatedAt"`
	Period             Period                 `json:"period"`
}

type PatientInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	BirthDate time.Time `json:"birthDate"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
}

type MedicalHistorySummary struct {
	MainComplaint         string   `json:"mainComplaint"`
	CurrentIllnessHistory string   `json:"currentIllnessHistory"`
	ChronicDiseases       []string `json:"chronicDiseases"`
	Medications           []string `json:"medications"`
	Allergies             []string `json:"allergies"`
	FamilyHistory         string   `json:"familyHistory"`
}

type EvolutionSummary struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	ProfessionalName string    `json:"professionalName"`
	ProfessionalRole string    `json:"professionalRole"`
	SubjectiveData   string    `json:"subjectiveData"`
	ObjectiveData    string    `json:"objectiveData"`
	Assessment       string    `json:"assessment"`
	Plan             string    `json:"plan"`
	Notes            string    `json:"notes"`
}

type AppointmentSummary struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	StartTime        string    `json:"startTime"`
	ProfessionalName string    `json:"professionalName"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes"`
}

type AnthropometricPoint struct {
	Date   time.Time `json:"date"`
	Weight *float64  `json:"weight"`
	Height *float64  `json:"height"`
	BMI    *float64  `json:"bmi"`
}

type Statistics struct {
	TotalEvolutions       int            `json:"totalEvolutions"`
	TotalAppointments     int            `json:"totalAppointments"`
	CompletedAppointments int            `json:"completedAppointments"`
	CancelledAppointments int            `json:"cancelledAppointments"`
	MissedAppointments    int            `json:"missedAppointments"`
	AppointmentsByStatus  map[string]int `json:"appointmentsByStatus"`
	EvolutionsByType      map[string]int `json:"evolutionsByType"`
	WeightChange          *float64       `json:"weightChange"`
	BMIChange             *float64       `json:"bmiChange"`
	DaysInTreatment       int            `json:"daysInTreatment"`
}

type Period struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	TotalDays int        `json:"totalDays"`
}

type ConsolidatedReportRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

type ConsolidatedReport struct {
	StartDate                  time.Time      `json:"startDate"`
	EndDate                    time.Time      `json:"endDate"`
	TotalPatients              int            `json:"totalPatients"`
	NewPatients                int            `json:"newPatients"`
	TotalAppointments          int            `json:"totalAppointments"`
	TotalEvolutions            int            `json:"totalEvolutions"`
	AppointmentsByProfessional map[string]int `json:"appointmentsByProfessional"`
	AppointmentsByType         map[string]int `json:"appointmentsByType"`
	PatientsByGender           map[string]int `json:"patientsByGender"`
	PatientsByAgeGroup         map[string]int `json:"patientsByAgeGroup"`
	TopDiagnoses               []Diagnosis    `json:"topDiagnoses"`
	GeneratedAt                time.Time      `json:"generatedAt"`
}

type Diagnosis struct {
	Diagnosis  string  `json:"diagnosis"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
