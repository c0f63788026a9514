package sentiment

import "fmt"

type Emotion string

const (
	Joy      Emotion = "joy"
	Sadness  Emotion = "sadness"
	Anger    Emotion = "anger"
	Fear     Emotion = "fear"
	Surprise Emotion = "surprise"
	Neutral  Emotion = "neutral"
)

const (
	JOY_THRESHOLD   = 0.1
	ANGER_THRESHOLD = -0.1
)

// Labels is every label a result may carry. Classify only ever produces
// Joy, Anger and Neutral; see Produced.
var Labels = []Emotion{Joy, Sadness, Anger, Fear, Surprise, Neutral}

// Produced is the set of labels Classify can return.
var Produced = []Emotion{Joy, Anger, Neutral}

// Classify maps a polarity score to the dominant emotion. Both thresholds
// are strict, so exactly 0.1 and -0.1 are neutral.
func Classify(score float64) Emotion {
	switch {
	case score > JOY_THRESHOLD:
		return Joy
	case score < ANGER_THRESHOLD:
		return Anger
	default:
		return Neutral
	}
}

// FormatScore renders a score with two decimal places.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

var styles = map[Emotion]string{
	Joy:     "result-joy",
	Anger:   "result-anger",
	Neutral: "result-neutral",
}

// Styles returns the client style class for each produced label.
func Styles() map[Emotion]string {
	out := make(map[Emotion]string, len(styles))
	for k, v := range styles {
		out[k] = v
	}
	return out
}

// StyleFor returns the class for e, falling back to the neutral style.
func StyleFor(e Emotion) string {
	if class, ok := styles[e]; ok {
		return class
	}
	return styles[Neutral]
}
