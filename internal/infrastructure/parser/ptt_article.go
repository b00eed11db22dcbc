package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PTTSentiment/internal/domain"
)

// Optional article fields that may be defaulted to empty.
const (
	FieldAuthor   = "author"
	FieldBoard    = "board"
	FieldContent  = "content"
	FieldComments = "comments"
	FieldTitle    = "title"
	FieldDate     = "date"
)

// ArticleHint carries what the index page already knows about an article.
// Title and Date fill in for pages whose metalines were edited away.
type ArticleHint struct {
	Title  string
	Author string
	Date   string
}

// ParsedArticle is the parser's structured result. Defaulted lists the optional
// fields that were absent on the page and left empty, and FromHint lists the
// required fields that were taken from the index hint.
type ParsedArticle struct {
	Article   domain.Article
	Defaulted []string
	FromHint  []string
}

// ArticleParser extracts a domain.Article from a single article page.
type ArticleParser struct {
	// MaxContentRunes caps the cleaned body; <= 0 keeps everything.
	MaxContentRunes int
}

// Parse fails with domain.ErrParse only when title, date or url cannot be located.
func (p ArticleParser) Parse(r io.Reader, pageURL string, hint ArticleHint) (ParsedArticle, error) {
	if strings.TrimSpace(pageURL) == "" {
		return ParsedArticle{}, fmt.Errorf("%w: article url is empty", domain.ErrParse)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ParsedArticle{}, fmt.Errorf("%w: read article %s: %v", domain.ErrParse, pageURL, err)
	}

	var result ParsedArticle
	meta := metalines(doc)
	article := domain.Article{URL: pageURL}

	article.Title = meta["標題"]
	if article.Title == "" {
		article.Title = strings.TrimSpace(hint.Title)
		result.FromHint = append(result.FromHint, FieldTitle)
	}
	if article.Title == "" {
		return ParsedArticle{}, fmt.Errorf("%w: %s has no title", domain.ErrParse, pageURL)
	}

	if raw := meta["時間"]; raw != "" {
		if date, err := NormalizeArticleTime(raw); err == nil {
			article.Date = date
		}
	}
	if article.Date == "" {
		article.Date = strings.TrimSpace(hint.Date)
		result.FromHint = append(result.FromHint, FieldDate)
	}
	if article.Date == "" {
		return ParsedArticle{}, fmt.Errorf("%w: %s has no date", domain.ErrParse, pageURL)
	}

	article.Author = accountID(meta["作者"])
	if article.Author == "" {
		article.Author = strings.TrimSpace(hint.Author)
	}
	if article.Author == "" {
		result.Defaulted = append(result.Defaulted, FieldAuthor)
	}

	article.Board = meta["看板"]
	if article.Board == "" {
		result.Defaulted = append(result.Defaulted, FieldBoard)
	}

	article.Comments = comments(doc)
	if len(article.Comments) == 0 {
		result.Defaulted = append(result.Defaulted, FieldComments)
	}

	article.Content = p.content(doc, pageURL)
	if article.Content == "" {
		result.Defaulted = append(result.Defaulted, FieldContent)
	}

	result.Article = article
	return result, nil
}

func (p ArticleParser) content(doc *goquery.Document, pageURL string) string {
	main := doc.Find("#main-content").First()
	if main.Length() == 0 {
		return ""
	}
	body := main.Clone()
	body.Find("div.article-metaline, div.article-metaline-right, div.push, span.article-metaline, span.push, script, style").Remove()
	return CleanContent(selectionText(body), pageURL, p.MaxContentRunes)
}

// metalines maps the 作者/看板/標題/時間 tags to their values.
func metalines(doc *goquery.Document) map[string]string {
	values := map[string]string{}
	doc.Find("div.article-metaline, div.article-metaline-right").Each(func(_ int, line *goquery.Selection) {
		tag := strings.TrimSpace(line.Find("span.article-meta-tag").First().Text())
		value := strings.TrimSpace(line.Find("span.article-meta-value").First().Text())
		if tag != "" && value != "" {
			values[tag] = value
		}
	})
	return values
}

func comments(doc *goquery.Document) []domain.Comment {
	var out []domain.Comment
	doc.Find("div.push").Each(func(_ int, push *goquery.Selection) {
		tag := push.Find("span.push-tag")
		user := push.Find("span.push-userid")
		content := push.Find("span.push-content")
		if tag.Length() == 0 || user.Length() == 0 || content.Length() == 0 {
			return
		}
		text := strings.TrimSpace(content.First().Text())
		text = strings.TrimSpace(strings.TrimPrefix(text, ":"))
		out = append(out, domain.Comment{
			Author: strings.TrimSpace(user.First().Text()),
			Text:   text,
			Vote:   domain.Vote(strings.TrimSpace(tag.First().Text())),
		})
	})
	return out
}

// accountID strips the nickname from "account (nickname)".
func accountID(author string) string {
	author = strings.TrimSpace(author)
	if id, _, ok := strings.Cut(author, " ("); ok {
		return strings.TrimSpace(id)
	}
	return author
}
