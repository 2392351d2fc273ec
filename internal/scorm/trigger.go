package scorm

// Trigger is the completion strategy baked into a package. Each variant maps
// to a factory of the same kind in player.js; all of them reach the runtime
// bridge only through its complete() entry point.
type Trigger interface {
	Kind() string
	// Settings is serialized into player.js and read by the matching factory.
	Settings() map[string]any
}

// Manual never completes on its own; the session only records the launch.
type Manual struct{}

func (Manual) Kind() string             { return "manual" }
func (Manual) Settings() map[string]any { return map[string]any{} }

// Timer completes the session once, Minutes after the page has loaded.
type Timer struct {
	Minutes int
}

func (Timer) Kind() string { return "timer" }

func (t Timer) Settings() map[string]any {
	return map[string]any{"delayMs": t.Minutes * 60 * 1000}
}

// CodeGate completes the session when the learner types Code exactly.
type CodeGate struct {
	Code         string
	PromptText   string
	RightMessage string
	WrongMessage string
}

func (CodeGate) Kind() string { return "code" }

func (c CodeGate) Settings() map[string]any {
	return map[string]any{
		"code":         c.Code,
		"rightMessage": c.RightMessage,
		"wrongMessage": c.WrongMessage,
	}
}

// VideoWatch is reserved for watch-based completion and is inert for now.
type VideoWatch struct {
	VideoID string
}

func (VideoWatch) Kind() string { return "video" }

func (v VideoWatch) Settings() map[string]any {
	return map[string]any{"videoId": v.VideoID}
}
