package advisor

import (
	"fmt"
	"strconv"
	"strings"
)

// Messages is the text catalog used by an Advisor. Format verbs:
// Under, Over and Neutral take the target yield as %s; RatioHigh and RatioLow
// take the actual and target ratio as two %.2f.
type Messages struct {
	Good              string
	Under             string
	Over              string
	Neutral           string
	RatioHigh         string
	RatioLow          string
	TargetPlaceholder string
	GramsSuffix       string
}

// English is the default catalog.
var English = Messages{
	Good:              "✅ Good extraction – keep your settings.",
	Under:             "Under-extracted → grind finer (lower number) and/or stop at %s.",
	Over:              "Over-extracted → grind coarser (higher number). Stick to %s.",
	Neutral:           "Fine-tune: aim for 25–30 s and %s.",
	RatioHigh:         "Your ratio (%.2f) is high compared to the target of %.2f. Try a finer grind or a lower yield.",
	RatioLow:          "Your ratio (%.2f) is low compared to the target of %.2f. Try a coarser grind or a longer shot time.",
	TargetPlaceholder: "the target yield",
	GramsSuffix:       " g",
}

// Danish is the catalog the advisor was first written in.
var Danish = Messages{
	Good:              "✅ God ekstraktion – behold indstillingerne.",
	Under:             "Underekstraheret → Mal finere (lavere tal) og/eller stop ved %s.",
	Over:              "Overekstraheret → Mal grovere (højere tal). Hold dig til %s.",
	Neutral:           "Juster småt: sigt efter 25–30 sek og %s.",
	RatioHigh:         "Din ratio (%.2f) er høj i forhold til mål på %.2f. Prøv finere kværn eller lavere udbytte.",
	RatioLow:          "Din ratio (%.2f) er lav i forhold til mål på %.2f. Prøv grovere kværn eller længere løbetid.",
	TargetPlaceholder: "måludbyttet",
	GramsSuffix:       " g",
}

// Languages lists the supported catalog codes.
var Languages = []string{"en", "da"}

// MessagesFor returns the catalog for a language code, English when unknown.
func MessagesFor(lang string) Messages {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "da", "da-dk", "danish":
		return Danish
	}
	return English
}

func formatGrams(g float64) string {
	return strconv.Itoa(RoundGrams(g))
}

func (m Messages) under(target string) string {
	return fmt.Sprintf(m.Under, target)
}

func (m Messages) over(target string) string {
	return fmt.Sprintf(m.Over, target)
}

func (m Messages) neutral(target string) string {
	return fmt.Sprintf(m.Neutral, target)
}

func (m Messages) ratioHigh(ratio, targetRatio float64) string {
	return fmt.Sprintf(m.RatioHigh, ratio, targetRatio)
}

func (m Messages) ratioLow(ratio, targetRatio float64) string {
	return fmt.Sprintf(m.RatioLow, ratio, targetRatio)
}
