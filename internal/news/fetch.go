// Package news fetches articles for a symbol and date range. Alpaca's news
// feed is the primary source; Google News RSS fills in when Alpaca has
// nothing for the window.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"saturn/internal/util"
)

// Article is a single news article from any source, ready for scoring.
type Article struct {
	Time     time.Time
	Source   string
	Symbol   string
	Headline string
	Content  string
}

// Fetcher pulls articles for one symbol window at a bounded request rate.
type Fetcher struct {
	md      *marketdata.Client
	http    *http.Client
	limiter *util.RateLimiter
	maxPer  int
	log     *slog.Logger
}

// NewFetcher creates a Fetcher. maxPerDay caps how many articles one
// calendar day contributes (the scorer pays per article); zero means
// no cap.
func NewFetcher(md *marketdata.Client, ratePerMinute, maxPerDay int, log *slog.Logger) *Fetcher {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		md:      md,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: util.NewRateLimiter(ratePerMinute),
		maxPer:  maxPerDay,
		log:     log,
	}
}

// Fetch returns the symbol's articles in [start, end], oldest first. Alpaca
// is tried first; if it errors or returns nothing the Google News RSS feed
// serves as fallback.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	articles, err := f.fetchAlpaca(symbol, start, end)
	if err != nil {
		f.log.Warn("alpaca news fetch failed, falling back to rss",
			"symbol", symbol, "error", err)
	}
	if len(articles) == 0 {
		articles, err = f.fetchGoogle(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch news for %s: %w", symbol, err)
		}
	}
	return f.capPerDay(articles), nil
}

func (f *Fetcher) fetchAlpaca(symbol string, start, end time.Time) ([]Article, error) {
	if f.md == nil {
		return nil, nil
	}
	raw, err := f.md.GetNews(marketdata.GetNewsRequest{
		Symbols:            []string{symbol},
		Start:              start,
		End:                end,
		TotalLimit:         500,
		IncludeContent:     true,
		ExcludeContentless: false,
		Sort:               marketdata.SortAsc,
	})
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(raw))
	for _, a := range raw {
		body := a.Summary
		if a.Content != "" {
			body = ExtractSymbolContent(a.Content, symbol)
		}
		articles = append(articles, Article{
			Time:     a.CreatedAt,
			Source:   "alpaca",
			Symbol:   symbol,
			Headline: a.Headline,
			Content:  body,
		})
	}
	return articles, nil
}

type rssResponse struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

func (f *Fetcher) fetchGoogle(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	q := url.QueryEscape(symbol + " stock")
	u := "https://news.google.com/rss/search?q=" + q + "&hl=en-US&gl=US&ceid=US:en"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google news http %d", resp.StatusCode)
	}

	var rss rssResponse
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, err
	}

	var articles []Article
	for _, item := range rss.Channel.Items {
		t, err := parseRSSTime(item.PubDate)
		if err != nil {
			continue
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		headline := item.Title
		// Google appends " - Publisher" to titles.
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			headline = headline[:idx]
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "google",
			Symbol:   symbol,
			Headline: headline,
			Content:  StripHTML(item.Desc),
		})
	}
	return articles, nil
}

func parseRSSTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		t, err = time.Parse(time.RFC1123, s)
	}
	return t, err
}

// capPerDay keeps at most maxPer articles per UTC calendar day, preserving
// order. Articles arrive oldest first, so the day's earliest survive.
func (f *Fetcher) capPerDay(articles []Article) []Article {
	if f.maxPer <= 0 {
		return articles
	}
	perDay := make(map[string]int)
	kept := articles[:0:0]
	for _, a := range articles {
		day := util.DayKey(a.Time, time.UTC)
		if perDay[day] >= f.maxPer {
			continue
		}
		perDay[day]++
		kept = append(kept, a)
	}
	return kept
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var htmlParaRe = regexp.MustCompile(`(?i)</?(p|br|div|li|h[1-6])\b[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// ExtractSymbolContent extracts paragraphs mentioning the symbol from HTML
// content, falling back to the full stripped text when none do.
func ExtractSymbolContent(rawHTML, symbol string) string {
	chunks := htmlParaRe.Split(rawHTML, -1)
	var matched []string
	upper := strings.ToUpper(symbol)
	for _, chunk := range chunks {
		plain := StripHTML(chunk)
		if plain == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(plain), upper) {
			matched = append(matched, plain)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, " ")
	}
	return StripHTML(rawHTML)
}
