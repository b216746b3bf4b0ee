package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"jobmonitor/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the collected errors into one ErrConfig, or nil when OK.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("%w: validation failed:\n- %s", domain.ErrConfig, strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a cleaned copy of cfg: keyword and location
// lists trimmed and de-duplicated, unusable companies dropped with a warning.
// Anything that would make the run meaningless is reported as an error.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.RequiredKeywords = trimList(out.RequiredKeywords)
	out.HighPriorityTitles = trimList(out.HighPriorityTitles)
	out.MediumPriorityTitles = trimList(out.MediumPriorityTitles)
	out.PreferredLocations = trimList(out.PreferredLocations)
	out.ExcludedKeywords = trimList(out.ExcludedKeywords)
	out.ExcludedLocations = trimList(out.ExcludedLocations)

	// ---- companies: bad entries are skipped, not fatal ----

	out.Companies = nil
	seenCo := map[string]bool{}
	for i, c := range cfg.Companies {
		c.Name = strings.TrimSpace(c.Name)
		c.SourceID = strings.TrimSpace(c.SourceID)
		c.SourceKind = domain.SourceKind(strings.ToLower(strings.TrimSpace(string(c.SourceKind))))
		c.KeywordsBoost = trimList(c.KeywordsBoost)

		if err := validate.Struct(c); err != nil {
			res.addWarn("companies[%d] (%q) skipped: %s", i, c.Name, fieldErrors(err))
			continue
		}
		if !c.SourceKind.Known() {
			res.addWarn("companies[%d] (%q) skipped: unknown source_kind %q", i, c.Name, c.SourceKind)
			continue
		}
		key := strings.ToLower(c.Name) + "|" + string(c.SourceKind) + "|" + strings.ToLower(c.SourceID)
		if seenCo[key] {
			res.addWarn("companies[%d] (%q) skipped: duplicate entry", i, c.Name)
			continue
		}
		seenCo[key] = true
		out.Companies = append(out.Companies, c)
	}
	if len(out.Companies) == 0 {
		res.addErr("companies must contain at least one usable entry")
	}

	// ---- rules ----

	if len(out.HighPriorityTitles) == 0 && len(out.MediumPriorityTitles) == 0 && len(out.RequiredKeywords) == 0 {
		res.addErr("at least one of high_priority_titles, medium_priority_titles, required_keywords is required")
	}
	checkPatterns := func(name string, pats []string) {
		for i, p := range pats {
			if _, err := regexp.Compile("(?i)" + p); err != nil {
				res.addErr("%s[%d] %q is not a valid pattern: %v", name, i, p, err)
			}
		}
	}
	checkPatterns("high_priority_titles", out.HighPriorityTitles)
	checkPatterns("medium_priority_titles", out.MediumPriorityTitles)

	// ---- settings ----

	if err := validate.Struct(out); err != nil {
		res.addErr("%s", fieldErrors(err))
	}
	if out.Weights.HighTitle < out.Weights.MediumTitle {
		res.addWarn("weights.high_title (%d) is below weights.medium_title (%d)", out.Weights.HighTitle, out.Weights.MediumTitle)
	}

	// simple conflict check
	exclSet := map[string]bool{}
	for _, b := range append(append([]string{}, out.ExcludedKeywords...), out.ExcludedLocations...) {
		exclSet[strings.ToLower(b)] = true
	}
	for _, a := range out.PreferredLocations {
		if exclSet[strings.ToLower(a)] {
			res.addWarn("location appears in both preferred_locations and an exclusion list: %q", a)
		}
	}

	return out, res
}

func fieldErrors(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
