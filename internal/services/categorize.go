package services

import (
	"strings"

	"retrace/internal/types"
)

// FallbackCategory is assigned when no rule matches.
const FallbackCategory = "other"

// builtinRule classifies by suffix-anchored domain match ("youtube.com"
// matches youtube.com and music.youtube.com, never notyoutube.com) and by
// case-insensitive substring of the full URL for path-based patterns.
type builtinRule struct {
	category string
	domains  []string
	urlParts []string
}

// Built-in classification table. Order matters: the first matching rule wins,
// so narrower categories (movies, mail) sit above broader ones that share
// domains. User rules are always consulted before this table.
var builtinRules = []builtinRule{
	{category: "development", domains: []string{"github.com", "gitlab.com", "bitbucket.org", "stackoverflow.com", "stackexchange.com", "developer.mozilla.org", "go.dev", "pkg.go.dev", "npmjs.com", "pypi.org", "crates.io", "hub.docker.com", "kubernetes.io", "learn.microsoft.com"}, urlParts: []string{"/docs/api", "/developers/"}},
	{category: "ai", domains: []string{"openai.com", "chatgpt.com", "claude.ai", "anthropic.com", "huggingface.co", "gemini.google.com", "perplexity.ai", "midjourney.com", "deepmind.com"}},
	{category: "mail", domains: []string{"mail.google.com", "outlook.live.com", "outlook.office.com", "mail.yahoo.com", "proton.me", "fastmail.com", "mail.ru"}, urlParts: []string{"/mail/"}},
	{category: "movies", domains: []string{"imdb.com", "rottentomatoes.com", "letterboxd.com", "themoviedb.org", "kinopoisk.ru"}},
	{category: "streaming", domains: []string{"netflix.com", "hulu.com", "disneyplus.com", "max.com", "primevideo.com", "crunchyroll.com"}},
	{category: "video", domains: []string{"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com", "rutube.ru"}},
	{category: "podcast", domains: []string{"podcasts.apple.com", "podcasts.google.com", "pocketcasts.com", "overcast.fm", "castbox.fm"}, urlParts: []string{"/podcast/"}},
	{category: "music", domains: []string{"spotify.com", "music.apple.com", "soundcloud.com", "bandcamp.com", "last.fm", "music.yandex.ru"}},
	{category: "gaming", domains: []string{"steampowered.com", "steamcommunity.com", "epicgames.com", "gog.com", "itch.io", "twitch.tv", "ign.com", "minecraft.net"}},
	{category: "social", domains: []string{"facebook.com", "instagram.com", "twitter.com", "x.com", "tiktok.com", "linkedin.com", "threads.net", "bsky.app", "mastodon.social", "vk.com"}},
	{category: "forums", domains: []string{"reddit.com", "news.ycombinator.com", "lobste.rs", "4chan.org", "quora.com", "discourse.org"}, urlParts: []string{"/forum/", "/forums/"}},
	{category: "communication", domains: []string{"discord.com", "slack.com", "telegram.org", "web.telegram.org", "whatsapp.com", "web.whatsapp.com", "zoom.us", "meet.google.com", "teams.microsoft.com", "signal.org"}},
	{category: "shopping", domains: []string{"amazon.com", "ebay.com", "etsy.com", "aliexpress.com", "walmart.com", "target.com", "ozon.ru", "wildberries.ru", "temu.com"}},
	{category: "news", domains: []string{"bbc.com", "bbc.co.uk", "cnn.com", "nytimes.com", "theguardian.com", "reuters.com", "apnews.com", "bloomberg.com", "washingtonpost.com", "aljazeera.com"}, urlParts: []string{"/news/"}},
	{category: "search", domains: []string{"google.com", "bing.com", "duckduckgo.com", "search.yahoo.com", "search.brave.com", "ecosia.org", "startpage.com", "yandex.ru"}},
	{category: "finance", domains: []string{"paypal.com", "stripe.com", "coinbase.com", "binance.com", "robinhood.com", "fidelity.com", "chase.com", "wise.com", "revolut.com", "finance.yahoo.com"}},
	{category: "education", domains: []string{"coursera.org", "udemy.com", "edx.org", "khanacademy.org", "duolingo.com", "brilliant.org", "mit.edu", "stanford.edu"}, urlParts: []string{"/course/", "/learn/"}},
	{category: "reference", domains: []string{"wikipedia.org", "wiktionary.org", "britannica.com", "archive.org", "arxiv.org", "scholar.google.com", "merriam-webster.com"}},
	{category: "travel", domains: []string{"booking.com", "airbnb.com", "expedia.com", "tripadvisor.com", "kayak.com", "skyscanner.com", "maps.google.com", "ryanair.com"}},
	{category: "food", domains: []string{"doordash.com", "ubereats.com", "grubhub.com", "deliveroo.com", "allrecipes.com", "seriouseats.com", "yelp.com"}, urlParts: []string{"/recipes/", "/recipe/"}},
	{category: "health", domains: []string{"webmd.com", "mayoclinic.org", "nih.gov", "healthline.com", "myfitnesspal.com", "strava.com"}},
	{category: "cloud", domains: []string{"aws.amazon.com", "console.aws.amazon.com", "cloud.google.com", "portal.azure.com", "digitalocean.com", "cloudflare.com", "vercel.com", "netlify.com", "fly.io", "heroku.com"}},
	{category: "hosting", domains: []string{"godaddy.com", "namecheap.com", "hetzner.com", "ovh.com", "linode.com", "porkbun.com"}},
	{category: "productivity", domains: []string{"notion.so", "trello.com", "asana.com", "todoist.com", "monday.com", "airtable.com", "calendar.google.com", "evernote.com", "obsidian.md", "atlassian.net"}},
	{category: "work", domains: []string{"docs.google.com", "drive.google.com", "sheets.google.com", "office.com", "sharepoint.com", "dropbox.com", "salesforce.com", "workday.com", "zendesk.com"}},
	{category: "design", domains: []string{"figma.com", "dribbble.com", "behance.net", "canva.com", "adobe.com", "unsplash.com", "fonts.google.com"}},
	{category: "modeling3d", domains: []string{"sketchfab.com", "thingiverse.com", "printables.com", "blender.org", "turbosquid.com", "cgtrader.com"}},
	{category: "government", domains: []string{"irs.gov", "usa.gov", "gov.uk", "europa.eu", "canada.ca", "gosuslugi.ru"}, urlParts: []string{".gov/"}},
	{category: "legal", domains: []string{"law.cornell.edu", "justia.com", "findlaw.com", "courtlistener.com"}, urlParts: []string{"/legal/", "/terms-of-service"}},
	{category: "utilities", domains: []string{"speedtest.net", "fast.com", "downdetector.com", "whatismyipaddress.com", "regex101.com", "jsonformatter.org", "translate.google.com"}},
	{category: "security", domains: []string{"haveibeenpwned.com", "virustotal.com", "1password.com", "bitwarden.com", "lastpass.com", "krebsonsecurity.com", "cve.org"}},
	{category: "russia", domains: []string{"yandex.com", "rambler.ru", "lenta.ru", "ria.ru", "rbc.ru", "habr.com"}},
	{category: "realestate", domains: []string{"zillow.com", "redfin.com", "realtor.com", "rightmove.co.uk", "cian.ru"}},
	{category: "jobs", domains: []string{"indeed.com", "glassdoor.com", "hh.ru", "monster.com", "wellfound.com"}, urlParts: []string{"/jobs/", "/careers/"}},
	{category: "dating", domains: []string{"tinder.com", "bumble.com", "hinge.co", "okcupid.com", "match.com"}},
	{category: "sports", domains: []string{"espn.com", "skysports.com", "nba.com", "nfl.com", "fifa.com", "flashscore.com", "sports.ru"}, urlParts: []string{"/sport/", "/sports/"}},
	{category: "weather", domains: []string{"weather.com", "accuweather.com", "windy.com", "wunderground.com", "met.no"}},
	{category: "automotive", domains: []string{"autotrader.com", "cars.com", "edmunds.com", "tesla.com", "auto.ru"}},
	{category: "entertainment", domains: []string{"9gag.com", "buzzfeed.com", "theonion.com", "boredpanda.com", "knowyourmeme.com"}},
}

// BuiltinCategories lists every built-in category in table order, then the
// fallback. CategoryCounts is pre-seeded from this list so every key is
// present even at zero.
func BuiltinCategories() []string {
	out := make([]string, 0, len(builtinRules)+1)
	seen := make(map[string]bool, len(builtinRules))
	for _, rule := range builtinRules {
		if !seen[rule.category] {
			out = append(out, rule.category)
			seen[rule.category] = true
		}
	}
	out = append(out, FallbackCategory)
	return out
}

// NewCategoryCounts returns a count map with every known category at zero.
func NewCategoryCounts() map[string]int {
	counts := make(map[string]int, len(builtinRules)+1)
	for _, category := range BuiltinCategories() {
		counts[category] = 0
	}
	return counts
}

// domainMatches reports whether domain equals suffix or is a subdomain of it.
// Suffixes that carry their own subdomain (mail.google.com) must match the
// domain's tail labels exactly.
func domainMatches(domain, suffix string) bool {
	if domain == suffix {
		return true
	}
	return strings.HasSuffix(domain, "."+suffix)
}

// Categorize resolves the category for one visit. User rules are evaluated
// first, in insertion order, matching case-insensitively as a substring of
// the domain or the full URL; the first match wins. Built-in rules follow.
// Rules with an empty pattern are skipped, never an error.
func Categorize(domain, rawURL string, customRules []types.CategoryRule) string {
	lowerDomain := strings.ToLower(domain)
	lowerURL := strings.ToLower(rawURL)

	for _, rule := range customRules {
		pattern := strings.ToLower(strings.TrimSpace(rule.Pattern))
		if pattern == "" || rule.Category == "" {
			continue
		}
		if strings.Contains(lowerDomain, pattern) || strings.Contains(lowerURL, pattern) {
			return rule.Category
		}
	}

	for _, rule := range builtinRules {
		for _, suffix := range rule.domains {
			if domainMatches(lowerDomain, suffix) {
				return rule.category
			}
		}
		for _, part := range rule.urlParts {
			if strings.Contains(lowerURL, part) {
				return rule.category
			}
		}
	}

	return FallbackCategory
}
