package sentiment

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Scorer turns a token stream into a signed polarity score.
type Scorer interface {
	Score(tokens []string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(tokens []string) float64

func (f ScorerFunc) Score(tokens []string) float64 { return f(tokens) }

// VaderScorer scores tokens with the VADER lexicon. The compound score is
// normalised to [-1, 1]. Safe for concurrent use.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Score(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	return v.analyzer.PolarityScores(strings.Join(tokens, " ")).Compound
}

// Tokenize lower-cases the text and splits it on runs of whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

// PlainText renders markdown and keeps only the visible text, with links
// and bare URLs removed and whitespace collapsed.
func PlainText(input string) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())

	text := string(rendered)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rendered))
	if err == nil {
		text = doc.Text()
	}

	return strings.Join(strings.Fields(RemoveLinks(text)), " ")
}
