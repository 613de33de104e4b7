package models

import "shotlog/internal/advisor"

// Dropdown options for form fields

var (
	// ProcessChoices defines the available post-harvest processes
	ProcessChoices = []Process{
		ProcessWashed,
		ProcessNatural,
		ProcessHoney,
		ProcessAnaerobic,
		ProcessCM,
		ProcessGilingBasah,
		ProcessWetHulled,
		ProcessOther,
	}

	// TargetRatioChoices defines the brew ratios offered when logging a shot
	TargetRatioChoices = []float64{1.8, 1.9, 2.0, 2.1, 2.2}
)

// Options is the payload clients use to build their forms.
type Options struct {
	Processes          []Process                    `json:"processes"`
	TargetRatios       []float64                    `json:"target_ratios"`
	DefaultTargetRatio float64                      `json:"default_target_ratio"`
	ShotTypes          []advisor.ShotType           `json:"shot_types"`
	RecommendedDoses   map[advisor.ShotType]float64 `json:"recommended_doses"`
}

// FormOptions returns the option lists for the bean and shot forms.
func FormOptions() Options {
	doses := make(map[advisor.ShotType]float64, len(advisor.ShotTypes))
	for _, st := range advisor.ShotTypes {
		doses[st] = advisor.RecommendedDose(st).Or(0)
	}
	return Options{
		Processes:          ProcessChoices,
		TargetRatios:       TargetRatioChoices,
		DefaultTargetRatio: advisor.DefaultTargetRatio,
		ShotTypes:          advisor.ShotTypes,
		RecommendedDoses:   doses,
	}
}
