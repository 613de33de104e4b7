// Package advisor diagnoses an espresso shot from its brew ratio and time and
// suggests a grind or yield adjustment. Everything here is pure: no I/O, no
// shared state, and every function is total over absent inputs.
package advisor

import (
	"math"
	"strings"
)

// Extraction windows and thresholds.
const (
	GoodRatioMin = 1.8
	GoodRatioMax = 2.2
	GoodTimeMin  = 25.0
	GoodTimeMax  = 30.0

	// RatioHintThreshold is how far the actual ratio may drift from the
	// target ratio before a deviation hint is offered.
	RatioHintThreshold = 0.15

	SingleDose = 9.0
	DoubleDose = 18.0

	DefaultTargetRatio = 2.0
)

// ShotType is the basket size of a shot.
type ShotType string

const (
	Single ShotType = "Single"
	Double ShotType = "Double"
)

// ShotTypes lists the supported shot types, default first.
var ShotTypes = []ShotType{Double, Single}

// ParseShotType matches s case-insensitively against the known shot types.
func ParseShotType(s string) (ShotType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, true
	case "double":
		return Double, true
	}
	return ShotType(s), false
}

// Kind is the extraction diagnosis.
type Kind string

const (
	KindGood    Kind = "good"
	KindUnder   Kind = "under"
	KindOver    Kind = "over"
	KindNeutral Kind = "neutral"
)

// Kinds lists every diagnosis.
var Kinds = []Kind{KindGood, KindUnder, KindOver, KindNeutral}

// Valid reports whether k is a known diagnosis.
func (k Kind) Valid() bool {
	switch k {
	case KindGood, KindUnder, KindOver, KindNeutral:
		return true
	}
	return false
}

// Input is a raw shot measurement. Absent fields are "no signal".
type Input struct {
	Dose        Value    `json:"dose_g"`
	Yield       Value    `json:"yield_g"`
	Time        Value    `json:"time_s"`
	ShotType    ShotType `json:"shot_type"`
	TargetRatio Value    `json:"target_ratio"`
}

// Derived holds values computed from an Input before classification.
type Derived struct {
	TargetYield Value `json:"target_yield_g"`
	ActualRatio Value `json:"actual_ratio"`
}

// Advice is a diagnosis with its explanation.
type Advice struct {
	Text string `json:"advice_text"`
	Kind Kind   `json:"advice_kind"`
}

// Result is the full output of DeriveAndClassify.
type Result struct {
	TargetYield Value  `json:"target_yield_g"`
	ActualRatio Value  `json:"actual_ratio"`
	AdviceText  string `json:"advice_text"`
	AdviceKind  Kind   `json:"advice_kind"`
}

// Advisor classifies shots using a message catalog.
type Advisor struct {
	msgs Messages
}

// New returns an Advisor speaking the given catalog.
func New(msgs Messages) *Advisor {
	return &Advisor{msgs: msgs}
}

// ForLanguage returns an Advisor for a language code, falling back to English.
func ForLanguage(lang string) *Advisor {
	return New(MessagesFor(lang))
}

var defaultAdvisor = New(English)

// RecommendedDose returns the customary dry dose for a shot type.
func RecommendedDose(t ShotType) Value {
	switch t {
	case Single:
		return Some(SingleDose)
	case Double:
		return Some(DoubleDose)
	}
	return None
}

// Derive computes the target yield and the actual brew ratio.
//
// The target yield is dose*targetRatio, falling back to the recommended dose
// for the shot type when no dose was measured. The ratio needs both a dose and
// a yield, and a non-zero dose.
func Derive(dose, yield Value, t ShotType, targetRatio Value) Derived {
	var d Derived

	if tr, ok := targetRatio.Get(); ok {
		if dg, ok := dose.Get(); ok {
			d.TargetYield = Some(dg * tr)
		} else if rd, ok := RecommendedDose(t).Get(); ok {
			d.TargetYield = Some(rd * tr)
		}
	}

	dg, hasDose := dose.Get()
	yg, hasYield := yield.Get()
	if hasDose && hasYield && dg != 0 {
		d.ActualRatio = Some(yg / dg)
	}

	return d
}

// Classify diagnoses a shot with the English catalog.
func Classify(ratio, timeS, targetYield, targetRatio Value) Advice {
	return defaultAdvisor.Classify(ratio, timeS, targetYield, targetRatio)
}

// DeriveAndClassify runs Derive then Classify with the English catalog.
func DeriveAndClassify(in Input) Result {
	return defaultAdvisor.DeriveAndClassify(in)
}

// DeriveAndClassify runs Derive then Classify.
func (a *Advisor) DeriveAndClassify(in Input) Result {
	d := Derive(in.Dose, in.Yield, in.ShotType, in.TargetRatio)
	adv := a.Classify(d.ActualRatio, in.Time, d.TargetYield, in.TargetRatio)
	return Result{
		TargetYield: d.TargetYield,
		ActualRatio: d.ActualRatio,
		AdviceText:  adv.Text,
		AdviceKind:  adv.Kind,
	}
}

// Classify diagnoses a shot. Rules are evaluated in order and the first match
// wins: good band on both axes, then under-extraction, then over-extraction,
// then a bare ratio-deviation hint, then the default nudge.
//
// A ratio outside the band is disqualifying on its own, even when the time is
// in band.
func (a *Advisor) Classify(ratio, timeS, targetYield, targetRatio Value) Advice {
	r, hasR := ratio.Get()
	t, hasT := timeS.Get()
	tr, hasTR := targetRatio.Get()

	target := a.msgs.TargetPlaceholder
	if ty, ok := targetYield.Get(); ok {
		target = formatGrams(ty) + a.msgs.GramsSuffix
	}

	if hasR && hasT && r >= GoodRatioMin && r <= GoodRatioMax && t >= GoodTimeMin && t <= GoodTimeMax {
		return Advice{Text: a.msgs.Good, Kind: KindGood}
	}

	var diff float64
	hasDiff := hasR && hasTR
	if hasDiff {
		diff = r - tr
	}

	if (hasT && t < GoodTimeMin) || (hasR && r > GoodRatioMax) {
		text := a.msgs.under(target)
		if hasDiff && diff > RatioHintThreshold {
			text += " " + a.msgs.ratioHigh(r, tr)
		}
		return Advice{Text: text, Kind: KindUnder}
	}

	if (hasT && t > GoodTimeMax) || (hasR && r < GoodRatioMin) {
		text := a.msgs.over(target)
		if hasDiff && diff < -RatioHintThreshold {
			text += " " + a.msgs.ratioLow(r, tr)
		}
		return Advice{Text: text, Kind: KindOver}
	}

	if hasDiff {
		switch {
		case diff > RatioHintThreshold:
			return Advice{Text: a.msgs.ratioHigh(r, tr), Kind: KindNeutral}
		case diff < -RatioHintThreshold:
			return Advice{Text: a.msgs.ratioLow(r, tr), Kind: KindNeutral}
		}
	}

	return Advice{Text: a.msgs.neutral(target), Kind: KindNeutral}
}

// RoundGrams rounds a gram value to the nearest integer, ties to even.
func RoundGrams(g float64) int {
	return int(math.RoundToEven(g))
}
