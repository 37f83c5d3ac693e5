package maib

import "golang.org/x/text/language"

// Languages supported on the hosted payment page.
var supported = []language.Tag{
	language.Romanian,
	language.Russian,
	language.English,
}

var matcher = language.NewMatcher(supported)

// Language picks the hosted page language for an Accept-Language header,
// falling back when nothing matches.
func Language(acceptLanguage, fallback string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return fallback
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}

	base, _ := supported[idx].Base()
	return base.String()
}
