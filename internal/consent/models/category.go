package models

import "strings"

// Category groups purposes for display.
type Category string

const (
	CategoryAnalytics   Category = "analytics"
	CategoryMarketing   Category = "marketing"
	CategoryEssential   Category = "essential"
	CategoryFunctional  Category = "functional"
	CategorySocial      Category = "social"
	CategoryPerformance Category = "performance"
	CategoryGeneral     Category = "general"
)

// Keyword rules are checked in order; the first match wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryAnalytics, []string{"analytics", "statistics"}},
	{CategoryMarketing, []string{"marketing", "advertising"}},
	{CategoryEssential, []string{"essential", "necessary"}},
	{CategoryFunctional, []string{"functional", "features"}},
	{CategorySocial, []string{"social", "media"}},
	{CategoryPerformance, []string{"performance", "speed"}},
}

var categoryIcons = map[Category]string{
	CategoryAnalytics:   "📊",
	CategoryMarketing:   "🎯",
	CategoryEssential:   "⚡",
	CategoryFunctional:  "🔧",
	CategorySocial:      "📱",
	CategoryPerformance: "🚀",
	CategoryGeneral:     "🔐",
}

// CategorizePurpose classifies a purpose or stats row by its name.
func CategorizePurpose(name string) Category {
	lower := strings.ToLower(name)
	for _, rule := range categoryKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// Icon is the glyph shown next to the purpose name.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryGeneral]
}
