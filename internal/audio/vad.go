package audio

import "math"

// VAD is an RMS energy voice activity detector with hysteresis.
type VAD struct {
	speechThreshold  float64 // RMS level to start speech
	silenceThreshold float64 // RMS level to end speech
	speechFrames     int     // consecutive loud frames to enter speech
	silenceFrames    int     // consecutive quiet frames to leave speech

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// VADOptions configures NewVAD. Zero values fall back to defaults tuned
// for 16 kHz, 20 ms frames.
type VADOptions struct {
	SpeechThreshold  float64
	SilenceThreshold float64
	SpeechFrames     int
	SilenceFrames    int
}

// NewVAD returns a detector in the silent state.
func NewVAD(opts VADOptions) *VAD {
	v := &VAD{
		speechThreshold:  opts.SpeechThreshold,
		silenceThreshold: opts.SilenceThreshold,
		speechFrames:     opts.SpeechFrames,
		silenceFrames:    opts.SilenceFrames,
	}
	if v.speechThreshold <= 0 {
		v.speechThreshold = 0.015
	}
	if v.silenceThreshold <= 0 {
		v.silenceThreshold = 0.008
	}
	if v.speechFrames <= 0 {
		v.speechFrames = 3
	}
	if v.silenceFrames <= 0 {
		v.silenceFrames = 40
	}
	return v
}

// IsSpeech feeds one frame and reports whether the detector is in speech.
func (v *VAD) IsSpeech(frame []int16) bool {
	level := RMS(frame)

	if v.inSpeech {
		if level < v.silenceThreshold {
			v.silenceCount++
			if v.silenceCount >= v.silenceFrames {
				v.inSpeech = false
				v.silenceCount = 0
			}
		} else {
			v.silenceCount = 0
		}
		return v.inSpeech
	}

	if level >= v.speechThreshold {
		v.speechCount++
		if v.speechCount >= v.speechFrames {
			v.inSpeech = true
			v.speechCount = 0
		}
	} else {
		v.speechCount = 0
	}
	return v.inSpeech
}

// Reset returns the detector to the silent state.
func (v *VAD) Reset() {
	v.inSpeech = false
	v.speechCount = 0
	v.silenceCount = 0
}

// RMS returns the normalized root-mean-square level of frame in [0, 1].
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame)))
}
