package dedup

import "fmt"

// Reaction is the decision the messaging layer should carry out for a
// verdict. Warning and deletion are independent best-effort actions; a
// failure of one must not suppress the other.
type Reaction struct {
	ShouldWarn   bool
	ShouldDelete bool
	WarningText  string
}

// React maps a verdict to a reaction. The first duplicate always warns;
// later duplicates warn only when allowRepeatingWarnings is set. Exempt and
// newly recorded messages are left alone.
func React(v Verdict, allowRepeatingWarnings bool) Reaction {
	switch v.Outcome {
	case OutcomeDuplicateFirstWarning:
		return Reaction{
			ShouldWarn:   true,
			ShouldDelete: true,
			WarningText:  warningText(v),
		}
	case OutcomeDuplicateAlreadyWarned:
		r := Reaction{ShouldDelete: true}
		if allowRepeatingWarnings {
			r.ShouldWarn = true
			r.WarningText = warningText(v)
		}
		return r
	default:
		return Reaction{}
	}
}

// warningText mentions the sender and references the original message so
// moderators can trace the duplicate chain.
func warningText(v Verdict) string {
	return fmt.Sprintf(`<a href="tg://user?id=%s">@%s</a>, your message has been deleted. Reason: duplicate message (id %s)`,
		v.SenderID, v.SenderName, v.OriginalMessageID)
}
