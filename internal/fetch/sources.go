package fetch

const gdeltDocAPI = "https://api.gdeltproject.org/api/v2/doc/doc"
const newsAPIEverything = "https://newsapi.org/v2/everything"

// DefaultSources returns the built-in upstream endpoints per target.
// Config may replace the whole map.
func DefaultSources() map[string][]Source {
	return map[string][]Source{
		"iran": {
			{Type: "rss", Name: "Iran Wire", URL: "https://iranwire.com/en/feed/"},
			{Type: "rss", Name: "Times of Israel", URL: "https://www.timesofisrael.com/feed/"},
			{Type: "rss", Name: "The Jerusalem Post", URL: "https://www.jpost.com/rss/rssfeedsfrontpage.aspx"},
			{Type: "gdelt", Name: "GDELT", URL: gdeltDocAPI, Language: "eng",
				Query: `iran OR irgc OR "revolutionary guard"`},
			{Type: "gdelt", Name: "GDELT", URL: gdeltDocAPI, Language: "fas",
				Query: `ایران OR سپاه`},
			{Type: "newsapi", Name: "NewsAPI", URL: newsAPIEverything,
				Query: `iran OR irgc OR tehran OR khamenei`},
		},
		"hezbollah": {
			{Type: "rss", Name: "Times of Israel", URL: "https://www.timesofisrael.com/feed/"},
			{Type: "rss", Name: "The Jerusalem Post", URL: "https://www.jpost.com/rss/rssfeedsfrontpage.aspx"},
			{Type: "gdelt", Name: "GDELT", URL: gdeltDocAPI, Language: "eng",
				Query: `hezbollah OR "southern lebanon" OR nasrallah`},
			{Type: "gdelt", Name: "GDELT", URL: gdeltDocAPI, Language: "ara",
				Query: `حزب الله OR لبنان`},
			{Type: "newsapi", Name: "NewsAPI", URL: newsAPIEverything,
				Query: `hezbollah OR "southern lebanon" OR "idf lebanon"`},
		},
		"houthis": {
			{Type: "rss", Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
			{Type: "gdelt", Name: "GDELT", URL: gdeltDocAPI, Language: "eng",
				Query: `houthi OR "red sea" shipping OR ansarallah`},
			{Type: "newsapi", Name: "NewsAPI", URL: newsAPIEverything,
				Query: `houthi OR yemen OR "red sea" shipping`},
		},
	}
}
