package parser

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PTTSentiment/internal/domain"
)

var indexNumberExpr = regexp.MustCompile(`index(\d+)\.html$`)

// IndexEntry is one row of a board index page.
type IndexEntry struct {
	Title   string
	URL     string
	Author  string
	RawDate string
	// Pinned entries sit below the list separator on the newest page.
	Pinned bool
}

// IndexPage is a parsed board index page.
type IndexPage struct {
	Entries []IndexEntry
	PrevURL string
}

// ParseIndex extracts article rows and the link to the previous (older) page.
// Rows without a link are deleted posts and are dropped.
func ParseIndex(r io.Reader, pageURL string) (IndexPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return IndexPage{}, fmt.Errorf("%w: read index %s: %v", domain.ErrParse, pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return IndexPage{}, fmt.Errorf("%w: index url %s: %v", domain.ErrParse, pageURL, err)
	}

	rows := doc.Find("div.r-ent, div.r-list-sep")
	paging := doc.Find("div.btn-group-paging")
	if doc.Find("div.r-ent").Length() == 0 && paging.Length() == 0 {
		return IndexPage{}, fmt.Errorf("%w: %s is not a board index page", domain.ErrParse, pageURL)
	}

	var page IndexPage
	pinned := false
	rows.Each(func(_ int, row *goquery.Selection) {
		if row.HasClass("r-list-sep") {
			pinned = true
			return
		}

		link := row.Find("div.title a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		page.Entries = append(page.Entries, IndexEntry{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolve(base, href),
			Author:  strings.TrimSpace(row.Find("div.author").First().Text()),
			RawDate: strings.TrimSpace(row.Find("div.date").First().Text()),
			Pinned:  pinned,
		})
	})

	paging.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), "上頁") {
			return true
		}
		if href, ok := a.Attr("href"); ok && href != "" {
			page.PrevURL = resolve(base, href)
		}
		return false
	})

	return page, nil
}

// PreviousIndexURL derives index{N-1}.html from index{N}.html. It is used when a
// page failed and its paging bar is unknown. The newest page (index.html) has no
// number, so no previous URL can be derived for it.
func PreviousIndexURL(pageURL string) (string, bool) {
	match := indexNumberExpr.FindStringSubmatchIndex(pageURL)
	if match == nil {
		return "", false
	}
	n, err := strconv.Atoi(pageURL[match[2]:match[3]])
	if err != nil || n <= 1 {
		return "", false
	}
	return pageURL[:match[2]] + strconv.Itoa(n-1) + pageURL[match[3]:], true
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
