package services

// MarketInsights is stored with each margin suggestion for later review.
type MarketInsights struct {
	AreaType        string   `json:"area_type"`
	Recommendations []string `json:"recommendations"`
}

// LocationInsights returns area-type pricing guidance for the prompt.
func LocationInsights(areaType string) MarketInsights {
	insights := MarketInsights{AreaType: areaType}
	switch areaType {
	case "urban":
		insights.Recommendations = append(insights.Recommendations,
			"Urban location: focus on convenience and quick service")
	case "suburban":
		insights.Recommendations = append(insights.Recommendations,
			"Suburban location: emphasize family-friendly offerings")
	case "rural":
		insights.Recommendations = append(insights.Recommendations,
			"Rural location: consider broader inventory and essential items")
	default:
		insights.Recommendations = append(insights.Recommendations,
			"Area type unknown: stay close to the category defaults")
	}
	return insights
}
