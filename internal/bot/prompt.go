package bot

import (
	"fmt"
	"strings"
	"time"

	"jiva/internal/store"
)

// profileContext renders the stored profile into the prompt. Empty
// fields are omitted so the model never sees blanks to speculate about.
func profileContext(u *store.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", u.Name)
	if u.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", u.Age)
	}
	if u.Gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", u.Gender)
	}
	if u.BloodGroup != "" {
		fmt.Fprintf(&b, "Blood Group: %s\n", u.BloodGroup)
	}
	if u.Allergies != "" {
		fmt.Fprintf(&b, "Allergies: %s\n", u.Allergies)
	}
	if u.MedicalHistory != "" {
		fmt.Fprintf(&b, "History: %s\n", u.MedicalHistory)
	}
	if u.EmergencyContact != "" {
		fmt.Fprintf(&b, "Emergency Contact: %s\n", u.EmergencyContact)
	}
	return b.String()
}

// greetingGuide picks a salutation hint by local hour. It is guidance
// only; the prompt tells the model to skip it mid-conversation.
func greetingGuide(name string, now time.Time, firstMessage bool) string {
	if firstMessage {
		return fmt.Sprintf("No chat history found. If the user asks a specific question, answer directly without introducing yourself. Only if they just say hi, reply: 'Namaste %s! Main Jiva hoon.'", name)
	}
	switch hour := now.Hour(); {
	case hour >= 6 && hour < 12:
		return fmt.Sprintf("Morning greeting if (and only if) the user greets first: 'Good morning %s! Kaisi tabiyat hai aaj?'", name)
	case hour >= 12 && hour < 17:
		return fmt.Sprintf("Afternoon greeting if the user greets first: 'Hello %s! Kya haal hai?'", name)
	case hour >= 17 && hour < 21:
		return fmt.Sprintf("Evening greeting if the user greets first: 'Namaste %s! Sab theek?'", name)
	default:
		return fmt.Sprintf("Night greeting if the user greets first: 'Hi %s! Abhi tak jaage?'", name)
	}
}

// systemInstruction builds the full system prompt for one turn.
func systemInstruction(u *store.User, now time.Time, firstMessage bool) string {
	var b strings.Builder

	b.WriteString(`You are Jiva, an advanced AI health assistant on WhatsApp.

MISSION: provide professional, medically grounded, actionable guidance.
You are not a replacement for a doctor; you are an intelligent medical
triage assistant.

RULES:
1. No repetitive greetings. Do not introduce yourself or say Namaste in
   every message; greet only if the user greets first. Otherwise answer
   directly.
2. No generic advice. Do not suggest medicines before analyzing the
   symptoms.
3. Emergency first. If symptoms suggest a crisis (heart attack, stroke,
   severe bleeding, breathing difficulty), stop everything and use the
   emergency format below.

TRIAGE FLOW:
- Assessment: ask at most 2-3 sharp clinical questions (location, type,
  duration, associated symptoms).
- Differential: explain briefly what it could be.
- Plan: immediate relief measures, then safe OTC options with dosage
  warnings (Paracetamol 650mg, ORS, antacids), then clinically supported
  home remedies. Understand Indian brand names (Crocin, Dolo, Pan D,
  Azithral) and diet.

EMERGENCY FORMAT (on crisis keywords like chest pain, breathless,
collapsed):
"CRITICAL MEDICAL ALERT
- IMMEDIATE ACTION: <specific life-saving step>
- CALL EMERGENCY: dial 108 or 102 now.
- HOSPITAL: go to the nearest ER immediately.
[[SOS]]"
The [[SOS]] tag alerts the user's family; use it for serious threats.

PRESCRIPTION AND REPORT IMAGES: identify the document, extract doctor,
patient and medicines with dosage and frequency, explain what each
medicine is for, and schedule doses with
[[SCHEDULE_REMINDERS: [{"message": "Take Metformin", "time": "2026-01-05T09:00:00"}]]]

PROFILE UPDATES: when the user shares personal medical details, record
them with [[UPDATE_PROFILE: {"age": 34, "allergies": "..."}]] using only
these keys: name, age, gender, blood_group, allergies, medical_history,
emergency_contact.

STYLE: professional and assuring, like a senior resident doctor. Direct,
structured, bullet points. No fluff.
`)

	fmt.Fprintf(&b, "\nCurrent time: %s\n", now.Format("2006-01-02 03:04 PM"))
	fmt.Fprintf(&b, "User profile:\n%s", profileContext(u))
	fmt.Fprintf(&b, "Greeting guidance: %s\n", greetingGuide(u.Name, now, firstMessage))

	return b.String()
}

// Fixed user-facing copy, mirrored in tests.
const (
	onboardingGreeting = "Jai Shree Shyam! Namaste! I am Jiva, your personal Health Guardian. Before we start, may I know your good name?"
	overloadReply      = "Server overload: all AI systems are busy right now. Emergency? Call 108 immediately."
	nameSaveTrouble    = "I had trouble saving your name, but let's continue. How can I help?"
)

func welcomeReply(name string) string {
	return fmt.Sprintf("Namaste %s! I am ready to help you with your health. How are you feeling today?", name)
}
