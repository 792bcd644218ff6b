package poster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"posterstudio/internal/domain"
)

// UsableHeightRatio is the share of the poster height available to the
// illustrations.
const UsableHeightRatio = 0.75

var (
	supportedLocales = []language.Tag{language.Spanish, language.English}
	localeMatcher    = language.NewMatcher(supportedLocales)

	spanishMonths = [...]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
)

// MatchLocale picks the supported locale closest to an Accept-Language value.
// Spanish wins when nothing matches.
func MatchLocale(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Spanish
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return language.Spanish
	}
	return supportedLocales[idx]
}

// DisplayName returns the baby's name or its index placeholder.
func DisplayName(b domain.BabyConfig, index int) string {
	if name := strings.TrimSpace(b.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Baby %d", index+1)
}

// TextLines produces two lines per baby: a name/scale header and the data line.
func TextLines(s domain.BirthPosterState, locale language.Tag) []string {
	lines := make([]string, 0, 2*len(s.Babies))
	for i, b := range s.Babies {
		lines = append(lines, HeaderLine(b, i, s.PosterSize), DataLine(b, locale))
	}
	return lines
}

// HeaderLine renders "{name} · escala 1:{s}".
func HeaderLine(b domain.BabyConfig, index int, size domain.PosterSize) string {
	return DisplayName(b, index) + " · escala 1:" + formatScale(Scale(b.HeightCm, size))
}

// Scale is how many times the baby's real height exceeds the printable
// height of the poster, never below 1 (life size).
func Scale(heightCm float64, size domain.PosterSize) float64 {
	_, h, ok := Dimensions(size)
	if !ok || heightCm <= 0 {
		return 1
	}
	s := heightCm / (h * UsableHeightRatio)
	if s < 1 {
		return 1
	}
	return math.Round(s*10) / 10
}

func formatScale(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// DataLine joins height, weight, birth date and place with " / ", skipping
// unset fields.
func DataLine(b domain.BabyConfig, locale language.Tag) string {
	parts := []string{strconv.FormatFloat(b.HeightCm, 'f', -1, 64) + " cm"}
	if b.WeightGrams != nil {
		kg := math.Round(*b.WeightGrams) / 1000
		parts = append(parts, strconv.FormatFloat(kg, 'f', -1, 64)+" kg")
	}
	if b.BirthDate != nil {
		parts = append(parts, LongDate(*b.BirthDate, locale))
	}
	if b.BirthPlace != nil && strings.TrimSpace(*b.BirthPlace) != "" {
		parts = append(parts, strings.TrimSpace(*b.BirthPlace))
	}
	return strings.Join(parts, " / ")
}

// LongDate formats d in long form for locale.
func LongDate(d domain.Date, locale language.Tag) string {
	if base, _ := locale.Base(); base.String() == "en" {
		return fmt.Sprintf("%s %d, %d", d.Month.String(), d.Day, d.Year)
	}
	month := ""
	if d.Month >= 1 && d.Month <= 12 {
		month = spanishMonths[d.Month-1]
	}
	return fmt.Sprintf("%d de %s de %d", d.Day, month, d.Year)
}
