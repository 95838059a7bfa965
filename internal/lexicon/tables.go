package lexicon

// Severity tiers. Kinetic language scores highest; ambient tension language
// lowest. De-escalation terms carry negative severities so a diplomatic
// corpus pulls the weighted sum down.
const (
	severityKinetic   = 3.0
	severityImminent  = 2.5
	severityThreat    = 2.0
	severityAmbient   = 1.5
	severityTruce     = -2.0
	severityDiplomacy = -1.8
	severityCooling   = -1.5
)

// defaultSeverities returns the built-in keyword severity table.
func defaultSeverities() map[string]float64 {
	m := make(map[string]float64)

	kinetic := []string{
		"strike", "airstrike", "attack", "bombing", "missile", "rocket",
		"offensive", "invasion", "incursion", "counterattack", "drone strike",
	}
	imminent := []string{
		"imminent strike", "imminent attack", "preparing to strike",
		"will strike", "military buildup", "forces gathering", "mobilization",
		"troops deployed", "reserves called up", "vowed to attack",
		"threatened to strike", "declaration of war", "full-scale war",
		"nuclear threat",
	}
	threat := []string{
		"retaliate", "retaliation", "threatens", "warned", "vowed",
		"red line", "severe response", "will respond", "consequences",
	}
	ambient := []string{
		"tensions", "escalation", "conflict", "crisis",
		"casualties", "killed", "wounded", "death toll",
	}
	truce := []string{
		"ceasefire", "cease-fire", "truce", "peace agreement", "peace deal",
	}
	diplomacy := []string{
		"peace talks", "negotiations", "diplomatic solution",
		"de-escalation", "de-escalate",
	}
	cooling := []string{
		"tensions ease", "restraint", "backs down", "ruled out",
		"no plans to", "defused", "diplomatic efforts",
	}

	for _, kw := range kinetic {
		m[kw] = severityKinetic
	}
	for _, kw := range imminent {
		m[kw] = severityImminent
	}
	for _, kw := range threat {
		m[kw] = severityThreat
	}
	for _, kw := range ambient {
		m[kw] = severityAmbient
	}
	for _, kw := range truce {
		m[kw] = severityTruce
	}
	for _, kw := range diplomacy {
		m[kw] = severityDiplomacy
	}
	for _, kw := range cooling {
		m[kw] = severityCooling
	}
	return m
}

// defaultSourceWeights returns the built-in source credibility table.
// Lookup is exact; anything absent gets DefaultSourceWeight.
func defaultSourceWeights() map[string]float64 {
	m := make(map[string]float64)

	wire := []string{
		"Reuters", "Associated Press", "AP News", "BBC News",
		"The New York Times", "The Washington Post", "The Guardian",
		"Financial Times", "Wall Street Journal", "The Economist",
	}
	regional := []string{
		"Al Jazeera", "Haaretz", "Times of Israel", "The Jerusalem Post",
		"Al Arabiya", "Middle East Eye", "Iran Wire",
	}
	broadcast := []string{
		"CNN", "NBC News", "CBS News", "ABC News", "Fox News",
		"Bloomberg", "CNBC", "MSNBC",
	}

	for _, s := range wire {
		m[s] = 1.0
	}
	for _, s := range regional {
		m[s] = 0.8
	}
	for _, s := range broadcast {
		m[s] = 0.6
	}
	m["GDELT"] = 0.4
	m["Reddit"] = 0.3
	return m
}
