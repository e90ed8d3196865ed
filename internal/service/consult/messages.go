package consult

import (
	"fmt"
	"html"
)

const (
	welcomeText = "Welcome to MedAssist AI! 👋 I'm your advanced medical consultation assistant. I can help analyze your symptoms, recommend specialists, and find nearby healthcare facilities. Let's start by detecting your location for personalized care recommendations."

	resetText         = "📍 Location reset. Please set your location again for personalized care."
	detectFailedText  = "❌ Could not retrieve location details. Please enter your city manually."
	manualFailedText  = "❌ Could not process location. Please try again."
	severeAlertText   = "🚨 URGENT: Your symptoms indicate a potentially serious condition that requires immediate medical attention. Please visit an emergency room or call emergency services right away."
	chronicAdviceText = "⚠️ Your symptoms have persisted for more than 4 days, which suggests you should schedule an appointment with a healthcare professional for proper evaluation and treatment."
	severeLinkClass   = "text-red-300 hover:text-red-200 underline font-medium"
	chronicLinkClass  = "text-yellow-300 hover:text-yellow-200 underline font-medium"
)

// Location fields come from user input or the geocoder and are escaped before
// they reach message content.

func detectedText(address string) string {
	return fmt.Sprintf("📍 Location detected successfully: %s", html.EscapeString(address))
}

func detectedGreeting(city string) string {
	return fmt.Sprintf("Perfect! Now I can provide you with personalized medical guidance and help you find nearby healthcare facilities in %s. Please describe your symptoms or health concerns.", html.EscapeString(city))
}

func manualSetText(address string) string {
	return fmt.Sprintf("📍 Location set to: %s", html.EscapeString(address))
}

func manualGreeting(city string) string {
	return fmt.Sprintf("Great! I've set your location to %s. Now I can provide personalized medical guidance and help you find nearby healthcare facilities. Please describe your symptoms or health concerns.", html.EscapeString(city))
}

func approximateSetText(city string) string {
	return fmt.Sprintf("📍 Location set to: %s (approximate coordinates)", html.EscapeString(city))
}

func approximateGreeting(city string) string {
	return fmt.Sprintf("I've set your location to %s. Now you can describe your symptoms and I'll help you find the right care.", html.EscapeString(city))
}

func specializationText(spec string) string {
	return fmt.Sprintf("🏥 Recommended specialization: %s", spec)
}

func anchor(href, class, label string) string {
	return fmt.Sprintf(`🔗 <a href="%s" target="_blank" rel="noopener noreferrer" class="%s">%s</a>`, href, class, label)
}
