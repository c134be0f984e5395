package models

// Control frame tags. Message frames are tagged with the participant name instead.
const (
	TagInfo  = "SYSTEM_INFO"
	TagTurn  = "SYSTEM_TURN"
	TagEnd   = "SYSTEM_END"
	TagError = "SYSTEM_ERROR"

	TurnUser = "USER"
)

type Frame struct {
	Tag     string
	Payload string
}

func (f Frame) String() string {
	return f.Tag + ":" + f.Payload
}
