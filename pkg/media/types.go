package media

// Kind is the Bot API media family a file is sent as. Its string form is
// also the payload field name the file goes into (sendPhoto takes "photo").
type Kind string

const (
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindAnimation Kind = "animation"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindSticker   Kind = "sticker"
	KindDocument  Kind = "document"
)

// Field returns the payload field name that carries a file of this kind.
func (k Kind) Field() string { return string(k) }

// SendMethod returns the Bot API method used to send a file of this kind.
func (k Kind) SendMethod() string {
	switch k {
	case KindPhoto:
		return "sendPhoto"
	case KindVideo:
		return "sendVideo"
	case KindAnimation:
		return "sendAnimation"
	case KindAudio:
		return "sendAudio"
	case KindVoice:
		return "sendVoice"
	case KindSticker:
		return "sendSticker"
	default:
		return "sendDocument"
	}
}
