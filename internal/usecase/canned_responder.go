package usecase

import (
	"strings"

	"nutriplan-backend/internal/domain/model"
)

// Canned replies serve as the offline fallback of the assistant. All dedup
// state (last reply, used replies per topic) lives on the session object
// passed in, never at package level, so two sessions cannot influence each
// other and the picker is reproducible in tests.

var cannedReplies = map[string][]string{
	"hydration": {
		"Aim for about 2 liters of water spread over the day; more on training days.",
		"A good rule of thumb: drink a glass of water with every meal and snack.",
		"If your urine is dark yellow, you are probably behind on fluids.",
	},
	"protein": {
		"Most active people do well around 1.6-2.2 g of protein per kg of body weight.",
		"Spreading protein over 3-4 meals beats loading it all into dinner.",
		"Eggs, Greek yogurt, legumes and fish are easy ways to raise protein without much prep.",
	},
	"motivation": {
		"Consistency beats intensity: a short workout you actually do wins every time.",
		"Track one small win per day; streaks are easier to keep than to restart.",
		"Schedule training like a meeting and treat it with the same respect.",
	},
	"default": {
		"I can help with meal plans, hydration, protein targets and training habits. What would you like to know?",
		"Try generating a weekly meal plan from the planner tab and ask me about any recipe in it.",
		"Tell me a bit about your goal and I can point you at the right feature.",
	},
}

func cannedTopic(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "water") || strings.Contains(m, "hydrat") || strings.Contains(m, "drink"):
		return "hydration"
	case strings.Contains(m, "protein"):
		return "protein"
	case strings.Contains(m, "motivat") || strings.Contains(m, "habit") || strings.Contains(m, "lazy"):
		return "motivation"
	default:
		return "default"
	}
}

// pickCannedReply returns the first unused reply for the message's topic,
// skipping an immediate repeat of the session's last reply. When the topic
// pool is exhausted its dedup state resets.
func pickCannedReply(session *model.ChatSession, message string) string {
	topic := cannedTopic(message)
	pool := cannedReplies[topic]

	for attempt := 0; attempt < 2; attempt++ {
		for idx, reply := range pool {
			if session.Used(topic, idx) {
				continue
			}
			if reply == session.LastReply && len(pool) > 1 {
				continue
			}
			session.MarkUsed(topic, idx)
			return reply
		}
		session.ResetTopic(topic)
	}
	return pool[0]
}
