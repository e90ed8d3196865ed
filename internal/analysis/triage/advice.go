package triage

// Disclaimer is appended after every mild-tier advice paragraph.
const Disclaimer = "💡 Remember: This is general guidance only. Always consult healthcare professionals for personalized medical advice. If symptoms worsen or persist, seek professional care."

type adviceRule struct {
	keywords []string
	text     string
}

var adviceRules = []adviceRule{
	{
		keywords: []string{"headache"},
		text:     "For mild headaches, try these approaches: Stay hydrated by drinking plenty of water, rest in a quiet, dark room, apply a cold or warm compress to your head or neck, and consider over-the-counter pain relievers like acetaminophen or ibuprofen. Ensure you're getting adequate sleep and managing stress levels.",
	},
	{
		keywords: []string{"cough", "cold"},
		text:     "For mild cold symptoms and cough: Stay well-hydrated with warm liquids like herbal tea or warm water with honey, get plenty of rest, use a humidifier or breathe steam from a hot shower, and consider throat lozenges. Honey can be particularly soothing for coughs.",
	},
	{
		keywords: []string{"fever"},
		text:     "For mild fever: Rest and stay hydrated with plenty of fluids, dress in lightweight clothing, use a cool compress on your forehead, and consider acetaminophen or ibuprofen to reduce fever. Monitor your temperature regularly and seek medical care if fever exceeds 103°F (39.4°C).",
	},
	{
		keywords: []string{"stomach", "nausea"},
		text:     "For mild stomach discomfort: Try the BRAT diet (bananas, rice, applesauce, toast), stay hydrated with small sips of clear fluids, avoid dairy and fatty foods, and consider ginger tea for nausea. Rest and avoid solid foods until you feel better.",
	},
}

// GenericAdvice is returned when no advice keyword matches.
const GenericAdvice = "Based on your symptoms, here are general recommendations: Ensure adequate rest and hydration, maintain a healthy diet, monitor your symptoms closely, and consider appropriate over-the-counter remedies if suitable. Create a comfortable environment for recovery and avoid strenuous activities."

// Advice 根据轻症描述返回对应的建议段落。
func Advice(symptoms string) string {
	text := normalize(symptoms)
	for _, rule := range adviceRules {
		if containsAny(text, rule.keywords) {
			return rule.text
		}
	}
	return GenericAdvice
}
