package clinical

import "time"

const DefaultEvolutionType = "Consulta"

// Evolution is one clinical progress note written after attending a patient.
type Evolution struct {
	ID                 string      `json:"id" bson:"_id"`
	PatientID          string      `json:"patientId" bson:"patientId"`
	PatientName        string      `json:"patientName,omitempty" bson:"patientName,omitempty"`
	Date               time.Time   `json:"date" bson:"date"`
	Time               string      `json:"time,omitempty" bson:"time,omitempty"`
	Type               string      `json:"type" bson:"type"`
	ChiefComplaint     string      `json:"chiefComplaint,omitempty" bson:"chiefComplaint,omitempty"`
	Symptoms           string      `json:"symptoms,omitempty" bson:"symptoms,omitempty"`
	VitalSigns         *VitalSigns `json:"vitalSigns,omitempty" bson:"vitalSigns,omitempty"`
	PhysicalExam       string      `json:"physicalExam,omitempty" bson:"physicalExam,omitempty"`
	Assessment         string      `json:"assessment,omitempty" bson:"assessment,omitempty"`
	Conduct            string      `json:"conduct,omitempty" bson:"conduct,omitempty"`
	Prescriptions      string      `json:"prescriptions,omitempty" bson:"prescriptions,omitempty"`
	ExamsRequested     string      `json:"examsRequested,omitempty" bson:"examsRequested,omitempty"`
	TreatmentEvolution string      `json:"treatmentEvolution,omitempty" bson:"treatmentEvolution,omitempty"`
	SideEffects        string      `json:"sideEffects,omitempty" bson:"sideEffects,omitempty"`
	Adherence          string      `json:"adherence,omitempty" bson:"adherence,omitempty"`
	Notes              string      `json:"notes,omitempty" bson:"notes,omitempty"`
	NextAppointment    *time.Time  `json:"nextAppointment,omitempty" bson:"nextAppointment,omitempty"`
	CreatedAt          time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt          *time.Time  `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	AttendedBy         string      `json:"attendedBy,omitempty" bson:"attendedBy,omitempty"`
	Duration           *int        `json:"duration,omitempty" bson:"duration,omitempty"`
}

type VitalSigns struct {
	BloodPressure    string   `json:"bloodPressure,omitempty" bson:"bloodPressure,omitempty"`
	HeartRate        *int     `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty" bson:"temperature,omitempty"`
	Weight           *float64 `json:"weight,omitempty" bson:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty" bson:"height,omitempty"`
	OxygenSaturation *int     `json:"oxygenSaturation,omitempty" bson:"oxygenSaturation,omitempty"`
}

// EvolutionRequest carries the writable fields of an evolution. Updates
// replace every writable field.
type EvolutionRequest struct {
	PatientID          string      `json:"patientId"`
	PatientName        string      `json:"patientName"`
	Date               time.Time   `json:"date"`
	Time               string      `json:"time"`
	Type               string      `json:"type"`
	ChiefComplaint     string      `json:"chiefComplaint"`
	Symptoms           string      `json:"symptoms"`
	VitalSigns         *VitalSigns `json:"vitalSigns"`
	PhysicalExam       string      `json:"physicalExam"`
	Assessment         string      `json:"assessment"`
	Conduct            string      `json:"conduct"`
	Prescriptions      string      `json:"prescriptions"`
	ExamsRequested     string      `json:"examsRequested"`
	TreatmentEvolution string      `json:"treatmentEvolution"`
	SideEffects        string      `json:"sideEffects"`
	Adherence          string      `json:"adherence"`
	Notes              string      `json:"notes"`
	NextAppointment    *time.Time  `json:"nextAppointment"`
	AttendedBy         string      `json:"attendedBy"`
	Duration           *int        `json:"duration"`
}

func (r EvolutionRequest) applyTo(e *Evolution) {
	e.PatientID = r.PatientID
	e.PatientName = r.PatientName
	e.Date = r.Date
	e.Time = r.Time
	e.Type = r.Type
	e.ChiefComplaint = r.ChiefComplaint
	e.Symptoms = r.Symptoms
	e.VitalSigns = r.VitalSigns
	e.PhysicalExam = r.PhysicalExam
	e.Assessment = r.Assessment
	e.Conduct = r.Conduct
	e.Prescriptions = r.Prescriptions
	e.ExamsRequested = r.ExamsRequested
	e.TreatmentEvolution = r.TreatmentEvolution
	e.SideEffects = r.SideEffects
	e.Adherence = r.Adherence
	e.Notes = r.Notes
	e.NextAppointment = r.NextAppointment
	e.Duration = r.Duration
	if e.Type == "" {
		e.Type = DefaultEvolutionType
	}
}

// MedicalReport is the single standing clinical summary of a patient.
type MedicalReport struct {
	ID              string     `json:"id" bson:"_id"`
	PatientID       string     `json:"patientId" bson:"patientId"`
	PatientName     string     `json:"patientName,omitempty" bson:"patientName,omitempty"`
	Diagnosis       string     `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Medications     string     `json:"medications,omitempty" bson:"medications,omitempty"`
	Allergies       string     `json:"allergies,omitempty" bson:"allergies,omitempty"`
	Comorbidities   string     `json:"comorbidities,omitempty" bson:"comorbidities,omitempty"`
	FamilyHistory   string     `json:"familyHistory,omitempty" bson:"familyHistory,omitempty"`
	TreatmentPlan   string     `json:"treatmentPlan,omitempty" bson:"treatmentPlan,omitempty"`
	Recommendations string     `json:"recommendations,omitempty" bson:"recommendations,omitempty"`
	Restrictions    string     `json:"restrictions,omitempty" bson:"restrictions,omitempty"`
	GeneralNotes    string     `json:"generalNotes,omitempty" bson:"generalNotes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	CreatedBy       string     `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy       string     `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

type MedicalReportRequest struct {
	PatientID       string `json:"patientId"`
	PatientName     string `json:"patientName"`
	Diagnosis       string `json:"diagnosis"`
	Medications     string `json:"medications"`
	Allergies       string `json:"allergies"`
	Comorbidities   string `json:"comorbidities"`
	FamilyHistory   string `json:"familyHistory"`
	TreatmentPlan   string `json:"treatmentPlan"`
	Recommendations string `json:"recommendations"`
	Restrictions    string `json:"restrictions"`
	GeneralNotes    string `json:"generalNotes"`
}

func (r MedicalReportRequest) applyTo(m *MedicalReport) {
	m.PatientID = r.PatientID
	m.PatientName = r.PatientName
	m.Diagnosis = r.Diagnosis
	m.Medications = r.Medications
	m.Allergies = r.Allergies
	m.Comorbidities = r.Comorbidities
	m.FamilyHistory = r.FamilyHistory
	m.TreatmentPlan = r.TreatmentPlan
	m.Recommendations = r.Recommendations
	m.Restrictions = r.Restrictions
	m.GeneralNotes = r.GeneralNotes
}
