package model

// Reason keys for verdicts. They double as translator keys so the decision
// engine stays locale-neutral.
const (
	ReasonLink      = "reason.link"
	ReasonMention   = "reason.mention"
	ReasonAd        = "reason.ad"
	ReasonJoinLeave = "reason.join_leave"
)

// Verdict is the outcome of evaluating a single message. It is produced fresh
// per message and never persisted.
type Verdict struct {
	Delete  bool
	Reason  string   // one of the Reason* keys, "" when Delete is false
	Handles []string // offending handles for ReasonMention
}

// Keep is the verdict for a message that passed every check.
func Keep() Verdict { return Verdict{} }
