package models

// LocalizedMessage is a bilingual (Arabic + English) message pair. Every
// user-facing error or warning the engine emits carries both languages; the
// caller renders whichever matches the active locale.
type LocalizedMessage struct {
	Field string `json:"field,omitempty"`
	En    string `json:"en"`
	Ar    string `json:"ar"`
}
