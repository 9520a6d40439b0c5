package models

type Speaker string

const (
	SpeakerHuman Speaker = "human"
	SpeakerAI    Speaker = "ai"
)

type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

type RetentionPolicy string

const (
	RetentionUnbounded RetentionPolicy = "unbounded"
	RetentionWindowed  RetentionPolicy = "windowed"
)

// History is the serialized view of a conversation handed to the agent.
// Exactly one of Turns or Transcript is used, depending on whether the store
// returns structured messages.
type History struct {
	Turns      []Turn `json:"turns,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

func (h History) Empty() bool {
	return len(h.Turns) == 0 && h.Transcript == ""
}

type ConversationStats struct {
	UserCount      int             `json:"user_count"`
	Retention      RetentionPolicy `json:"retention"`
	WindowSize     int             `json:"window_size"`
	ReturnMessages bool            `json:"return_messages"`
}
