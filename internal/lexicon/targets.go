package lexicon

// TargetProfile names a tracked actor and the keyword set that gates
// relevance. Subreddits are auxiliary query identifiers consumed only by
// external fetchers; the scoring core never reads them.
type TargetProfile struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Keywords   []string `yaml:"keywords" json:"keywords"`
	Subreddits []string `yaml:"subreddits" json:"subreddits,omitempty"`
}

// DefaultTargets returns the built-in theatre profiles.
func DefaultTargets() []TargetProfile {
	return []TargetProfile{
		{
			ID:   "iran",
			Name: "Iran",
			Keywords: []string{
				"iran", "iranian", "tehran", "irgc",
				"revolutionary guard", "khamenei",
			},
			Subreddits: []string{"Iran", "Israel", "geopolitics"},
		},
		{
			ID:   "hezbollah",
			Name: "Hezbollah",
			Keywords: []string{
				"hezbollah", "hizbollah", "hizballah",
				"lebanon", "lebanese", "nasrallah",
			},
			Subreddits: []string{"Lebanon", "Israel", "ForbiddenBromance"},
		},
		{
			ID:   "houthis",
			Name: "Houthis",
			Keywords: []string{
				"houthi", "houthis", "yemen", "yemeni",
				"ansarallah", "ansar allah", "sanaa",
			},
			Subreddits: []string{"Yemen", "Israel", "geopolitics"},
		},
	}
}
