package entity

// ApplySettings propagates user notification settings onto existing tasks.
// A task inherits the settings' WhatsApp configuration when it has reminders
// enabled but no WhatsApp number of its own; everything else is untouched.
//
// This retroactive rewrite of task scheduling fields from global settings is
// preserved behavior from the product, isolated here as a pure function so the
// coupling stays visible and testable. The input slice is not modified.
func ApplySettings(settings UserSettings, goals []Goal) []Goal {
	out := CloneGoals(goals)

	if settings.WhatsappNumber == "" {
		return out
	}

	for gi := range out {
		for ti := range out[gi].Tasks {
			task := &out[gi].Tasks[ti]
			if !task.ReminderEnabled || task.WhatsappNumber != "" {
				continue
			}
			task.WhatsappNumber = settings.WhatsappNumber
			task.EnableWhatsapp = settings.EnableWhatsappNotifications
			if task.ReminderTime == "" && settings.ReminderTime != "" {
				task.ReminderTime = settings.ReminderTime
			}
		}
	}

	return out
}
