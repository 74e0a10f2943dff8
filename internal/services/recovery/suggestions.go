package recovery

import "github.com/MyelinBots/bloom-go/internal/db/repositories/couple"

type ActionType string

const (
	ActionAppreciation ActionType = "Appreciation"
	ActionReflection   ActionType = "Reflection"
	ActionApology      ActionType = "Apology"
	ActionCoolDown     ActionType = "CoolDown"
	ActionMoodCheck    ActionType = "MoodCheck"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionAppreciation, ActionReflection, ActionApology, ActionCoolDown, ActionMoodCheck:
		return true
	}
	return false
}

func SuggestionsFor(level couple.RecoveryLevel) []string {
	switch level {
	case couple.RecoverySoft:
		return []string{"Send a gentle appreciation", "Share a happy memory"}
	case couple.RecoveryModerate:
		return []string{"Complete a mood check", "Read communication tips", "Send 3 appreciations"}
	case couple.RecoveryCritical:
		return []string{"Take a 24h cool-down", "Write a private reflection", "Apologize for a specific action"}
	default:
		return nil
	}
}

// EntryMessage is the alert text sent to both partners on entry.
func EntryMessage(level couple.RecoveryLevel) string {
	switch level {
	case couple.RecoveryCritical:
		return "Your relationship needs attention right now. Recovery mode is on."
	case couple.RecoveryModerate:
		return "Things have been rough lately. Recovery mode is on with a few ideas to reconnect."
	default:
		return "It has been quiet between you two. Recovery mode is on, try a small gesture today."
	}
}
