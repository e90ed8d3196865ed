package triage

// Specialization 表示转诊的专科名称。
type Specialization string

const (
	Cardiology       Specialization = "Cardiology"
	Pulmonology      Specialization = "Pulmonology"
	Neurology        Specialization = "Neurology"
	Ophthalmology    Specialization = "Ophthalmology"
	ENT              Specialization = "ENT (Ear, Nose, Throat)"
	Dermatology      Specialization = "Dermatology"
	Orthopedics      Specialization = "Orthopedics"
	Gastroenterology Specialization = "Gastroenterology"
	Dentistry        Specialization = "Dentistry"
	GeneralMedicine  Specialization = "General Medicine"
)

// SpecializationRule maps a keyword set to a referral category.
type SpecializationRule struct {
	Specialization Specialization `json:"specialization"`
	Keywords       []string       `json:"keywords"`
}

// severeKeywords is scanned before anything else; any hit makes the report severe.
var severeKeywords = []string{
	"chest pain", "shortness of breath", "difficulty breathing",
	"fainting", "loss of vision", "severe headache", "severe pain",
	"bleeding", "seizure", "unconscious", "stroke", "heart attack",
	"can't breathe", "choking", "severe bleeding", "paralysis",
}

// specializationRules is evaluated top to bottom, first match wins.
var specializationRules = []SpecializationRule{
	{Specialization: Cardiology, Keywords: []string{"chest pain", "heart", "palpitation", "cardiac"}},
	{Specialization: Pulmonology, Keywords: []string{"breathing", "lung", "cough", "asthma"}},
	{Specialization: Neurology, Keywords: []string{"headache", "brain", "seizure", "stroke"}},
	{Specialization: Ophthalmology, Keywords: []string{"eye", "vision", "sight"}},
	{Specialization: ENT, Keywords: []string{"ear", "throat", "nose", "hearing"}},
	{Specialization: Dermatology, Keywords: []string{"skin", "rash", "acne", "eczema"}},
	{Specialization: Orthopedics, Keywords: []string{"bone", "joint", "muscle", "fracture"}},
	{Specialization: Gastroenterology, Keywords: []string{"stomach", "digestive", "nausea", "abdomen"}},
	{Specialization: Dentistry, Keywords: []string{"tooth", "dental", "gum", "mouth"}},
}

// SevereKeywords returns a copy of the severe phrase list in scan order.
func SevereKeywords() []string {
	return append([]string(nil), severeKeywords...)
}

// Rules returns the specialization rules in scan order, General Medicine last.
func Rules() []SpecializationRule {
	out := make([]SpecializationRule, 0, len(specializationRules)+1)
	for _, rule := range specializationRules {
		out = append(out, SpecializationRule{
			Specialization: rule.Specialization,
			Keywords:       append([]string(nil), rule.Keywords...),
		})
	}
	return append(out, SpecializationRule{Specialization: GeneralMedicine})
}
