package tui

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeyForceMic  = "ctrl+r"
	KeyTestAudio = "ctrl+t"
	KeyEnter     = "enter"
	KeyBackspace = "backspace"
	KeyEscape    = "esc"
)
