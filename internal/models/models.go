package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"shotlog/internal/advisor"
)

// Field length limits
const (
	MaxBrandLength        = 100
	MaxNameLength         = 100
	MaxProcessOtherLength = 50
	MaxNotesLength        = 1000
	MaxGrindLength        = 20
	MaxAliasLength        = 64
)

// Measurement limits. Values outside these ranges are typos, not shots.
const (
	MinTargetRatio = 1.0
	MaxTargetRatio = 4.0
	MaxDoseGrams   = 50.0
	MaxYieldGrams  = 200.0
	MaxTimeSeconds = 180.0
)

// DateLayout is the calendar date format used for shot dates.
const DateLayout = "2006-01-02"

// Validation errors
var (
	ErrNameRequired     = errors.New("brand or name is required")
	ErrNameTooLong      = errors.New("name is too long")
	ErrFieldTooLong     = errors.New("field value is too long")
	ErrNotesTooLong     = errors.New("notes are too long")
	ErrInvalidProcess   = errors.New("unknown process")
	ErrInvalidShotType  = errors.New("shot type must be Single or Double")
	ErrTargetRatioRange = errors.New("target ratio is out of range")
	ErrOutOfRange       = errors.New("measurement out of range")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrAliasInvalid     = errors.New("alias must be 1-64 characters of letters, digits, '.', '_' or '-'")
	ErrNothingToUpdate  = errors.New("nothing to update")
)

// Process is how a coffee was processed after harvest.
type Process string

const (
	ProcessWashed      Process = "Washed"
	ProcessNatural     Process = "Natural"
	ProcessHoney       Process = "Honey"
	ProcessAnaerobic   Process = "Anaerob"
	ProcessCM          Process = "CM"
	ProcessGilingBasah Process = "Giling Basah"
	ProcessWetHulled   Process = "Wet-Hulled"
	ProcessOther       Process = "Other"
)

// Valid reports whether p is one of ProcessChoices.
func (p Process) Valid() bool {
	for _, c := range ProcessChoices {
		if p == c {
			return true
		}
	}
	return false
}

// Bean is a coffee a user pulls shots of. ID is the slug of brand and name.
type Bean struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Brand        string    `json:"brand"`
	Name         string    `json:"name"`
	Process      Process   `json:"process"`
	ProcessOther string    `json:"process_other,omitempty"`
	TargetRatio  float64   `json:"target_ratio"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Label is the human name of the bean, "Brand – Name".
func (b *Bean) Label() string {
	var parts []string
	if s := strings.TrimSpace(b.Brand); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(b.Name); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "Unnamed"
	}
	return strings.Join(parts, " – ")
}

// DisplayProcess returns the free-text process for "Other" beans.
func (b *Bean) DisplayProcess() string {
	if b.Process == ProcessOther && b.ProcessOther != "" {
		return b.ProcessOther
	}
	return string(b.Process)
}

// ShotEntry is one logged espresso shot. Entries are append-only.
type ShotEntry struct {
	ID           string           `json:"id"`
	BeanID       string           `json:"bean_id"`
	Date         string           `json:"date"`
	ShotType     advisor.ShotType `json:"shot_type"`
	Grind        string           `json:"grind"`
	DoseG        advisor.Value    `json:"dose_g"`
	YieldG       advisor.Value    `json:"yield_g"`
	TimeS        advisor.Value    `json:"time_s"`
	TargetRatio  float64          `json:"target_ratio"`
	TargetYieldG advisor.Value    `json:"target_yield_g"`
	ActualRatio  advisor.Value    `json:"actual_ratio"`
	AdviceText   string           `json:"advice_text"`
	AdviceKind   advisor.Kind     `json:"advice_kind"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// CreateBeanRequest is the payload for adding (or re-submitting) a bean.
type CreateBeanRequest struct {
	Brand        string   `json:"brand"`
	Name         string   `json:"name"`
	Process      Process  `json:"process"`
	ProcessOther string   `json:"process_other"`
	TargetRatio  *float64 `json:"target_ratio"`
	Notes        string   `json:"notes"`
}

// Normalize trims text fields and applies defaults.
func (r *CreateBeanRequest) Normalize() {
	r.Brand = strings.TrimSpace(r.Brand)
	r.Name = strings.TrimSpace(r.Name)
	r.ProcessOther = strings.TrimSpace(r.ProcessOther)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.Process == "" {
		r.Process = ProcessWashed
	}
}

// Validate checks the request after Normalize.
func (r *CreateBeanRequest) Validate() error {
	if r.Brand == "" && r.Name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(r.Brand) > MaxBrandLength || utf8.RuneCountInString(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if Slug(r.Brand, r.Name) == "" {
		return ErrNameRequired
	}
	if !r.Process.Valid() {
		return ErrInvalidProcess
	}
	if utf8.RuneCountInString(r.ProcessOther) > MaxProcessOtherLength {
		return ErrFieldTooLong
	}
	if utf8.RuneCountInString(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if r.TargetRatio != nil {
		if err := validateTargetRatio(*r.TargetRatio); err != nil {
			return err
		}
	}
	return nil
}

// ID is the slug of the bean the request describes.
func (r *CreateBeanRequest) ID() string {
	return Slug(r.Brand, r.Name)
}

// Bean builds a new bean from the request. Timestamps are left to the store.
func (r *CreateBeanRequest) Bean(userID string) *Bean {
	ratio := advisor.DefaultTargetRatio
	if r.TargetRatio != nil {
		ratio = *r.TargetRatio
	}
	other := ""
	if r.Process == ProcessOther {
		other = r.ProcessOther
	}
	return &Bean{
		ID:           r.ID(),
		UserID:       userID,
		Brand:        r.Brand,
		Name:         r.Name,
		Process:      r.Process,
		ProcessOther: other,
		TargetRatio:  ratio,
		Notes:        r.Notes,
	}
}

// Merge applies a re-submission to the stored bean with the same ID. Only the
// target ratio and notes change, and only when the request carries them.
func (r *CreateBeanRequest) Merge(b *Bean) {
	if r.TargetRatio != nil {
		b.TargetRatio = *r.TargetRatio
	}
	if r.Notes != "" {
		b.Notes = r.Notes
	}
}

// UpdateBeanRequest changes the mutable fields of a bean.
type UpdateBeanRequest struct {
	TargetRatio *float64 `json:"target_ratio"`
	Notes       *string  `json:"notes"`
}

// Validate checks the request.
func (r *UpdateBeanRequest) Validate() error {
	if r.TargetRatio == nil && r.Notes == nil {
		return ErrNothingToUpdate
	}
	if r.TargetRatio != nil {
		if err := validateTargetRatio(*r.TargetRatio); err != nil {
			return err
		}
	}
	if r.Notes != nil && utf8.RuneCountInString(*r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// Apply copies the requested changes onto b.
func (r *UpdateBeanRequest) Apply(b *Bean) {
	if r.TargetRatio != nil {
		b.TargetRatio = *r.TargetRatio
	}
	if r.Notes != nil {
		b.Notes = strings.TrimSpace(*r.Notes)
	}
}

// CreateShotRequest is a shot as entered by the user. Numeric fields that were
// left blank or could not be parsed are absent.
type CreateShotRequest struct {
	Date        string           `json:"date"`
	ShotType    advisor.ShotType `json:"shot_type"`
	Grind       string           `json:"grind"`
	Dose        advisor.Value    `json:"dose_g"`
	Yield       advisor.Value    `json:"yield_g"`
	Time        advisor.Value    `json:"time_s"`
	TargetRatio advisor.Value    `json:"target_ratio"`
	Notes       string           `json:"notes"`
}

// Normalize trims text, canonicalizes the shot type and fills defaults: Double
// shots, today's date, and the bean's target ratio.
func (r *CreateShotRequest) Normalize(bean *Bean, now time.Time) {
	r.Grind = strings.TrimSpace(r.Grind)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Date = strings.TrimSpace(r.Date)
	if r.Date == "" {
		r.Date = now.Format(DateLayout)
	}
	if r.ShotType == "" {
		r.ShotType = advisor.Double
	} else if st, ok := advisor.ParseShotType(string(r.ShotType)); ok {
		r.ShotType = st
	}
	if !r.TargetRatio.Present() {
		if bean != nil && bean.TargetRatio > 0 {
			r.TargetRatio = advisor.Some(bean.TargetRatio)
		} else {
			r.TargetRatio = advisor.Some(advisor.DefaultTargetRatio)
		}
	}
}

// Validate checks the request after Normalize.
func (r *CreateShotRequest) Validate() error {
	if r.ShotType != advisor.Single && r.ShotType != advisor.Double {
		return ErrInvalidShotType
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	if utf8.RuneCountInString(r.Grind) > MaxGrindLength {
		return ErrFieldTooLong
	}
	if utf8.RuneCountInString(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if err := checkRange("dose", r.Dose, MaxDoseGrams); err != nil {
		return err
	}
	if err := checkRange("yield", r.Yield, MaxYieldGrams); err != nil {
		return err
	}
	if err := checkRange("time", r.Time, MaxTimeSeconds); err != nil {
		return err
	}
	if tr, ok := r.TargetRatio.Get(); ok {
		if err := validateTargetRatio(tr); err != nil {
			return err
		}
	}
	return nil
}

// Input converts the request into engine input.
func (r *CreateShotRequest) Input() advisor.Input {
	return advisor.Input{
		Dose:        r.Dose,
		Yield:       r.Yield,
		Time:        r.Time,
		ShotType:    r.ShotType,
		TargetRatio: r.TargetRatio,
	}
}

func checkRange(field string, v advisor.Value, max float64) error {
	f, ok := v.Get()
	if !ok {
		return nil
	}
	if f < 0 || f > max {
		return fmt.Errorf("%s must be between 0 and %g: %w", field, max, ErrOutOfRange)
	}
	return nil
}

func validateTargetRatio(r float64) error {
	if r < MinTargetRatio || r > MaxTargetRatio {
		return ErrTargetRatioRange
	}
	return nil
}

var aliasRe = regexp.MustCompile(`^[a-z0-9._-]+$`)

var slugFold = strings.NewReplacer(
	"æ", "ae", "ø", "oe", "å", "aa",
	"ä", "a", "ö", "o", "ü", "u", "é", "e", "è", "e", "ñ", "n",
)

// slugSeparator joins the brand and name parts. SlugText never produces two
// dashes in a row, so the split point is unambiguous.
const slugSeparator = "--"

// Slug derives a bean identity from brand and name, or "" when neither has a
// letter or digit. ("La Cabra", "Halo") becomes "la-cabra--halo".
func Slug(brand, name string) string {
	b, n := SlugText(brand), SlugText(name)
	if b == "" && n == "" {
		return ""
	}
	return b + slugSeparator + n
}

// SlugText lower-cases s, folds Nordic letters and collapses every run of
// characters other than letters and digits to a single dash.
func SlugText(s string) string {
	s = slugFold.Replace(strings.ToLower(strings.TrimSpace(s)))

	var sb strings.Builder
	pending := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pending && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pending = false
			sb.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// combining accents belong to the preceding letter
		default:
			pending = true
		}
	}
	return sb.String()
}

// NormalizeAlias lower-cases and validates a login alias.
func NormalizeAlias(alias string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(alias))
	if a == "" || len(a) > MaxAliasLength || !aliasRe.MatchString(a) {
		return "", ErrAliasInvalid
	}
	return a, nil
}
