package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"PTTSentiment/internal/domain"
)

const (
	boardBase  = "https://www.ptt.cc"
	boardIndex = boardBase + "/bbs/Stock/index.html"
)

type row struct {
	title  string
	href   string
	author string
	date   string
}

// indexHTML renders a board index page. Pinned rows follow the list separator.
func indexHTML(prevHref string, rows []row, pinned []row) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="action-bar-container"><div class="btn-group btn-group-paging">`)
	b.WriteString(`<a class="btn wide" href="/bbs/Stock/index1.html">最舊</a>`)
	if prevHref != "" {
		fmt.Fprintf(&b, `<a class="btn wide" href="%s">‹ 上頁</a>`, prevHref)
	} else {
		b.WriteString(`<a class="btn wide disabled">‹ 上頁</a>`)
	}
	b.WriteString(`<a class="btn wide disabled">下頁 ›</a></div></div><div class="r-list-container action-bar-margin bbs-screen">`)
	writeRows(&b, rows)
	if len(pinned) > 0 {
		b.WriteString(`<div class="r-list-sep"></div>`)
		writeRows(&b, pinned)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func writeRows(b *strings.Builder, rows []row) {
	for _, r := range rows {
		b.WriteString(`<div class="r-ent"><div class="nrec"></div><div class="title">`)
		if r.href != "" {
			fmt.Fprintf(b, `<a href="%s">%s</a>`, r.href, r.title)
		} else {
			fmt.Fprintf(b, `(本文已被刪除) [%s]`, r.author)
		}
		fmt.Fprintf(b, `</div><div class="meta"><div class="author">%s</div><div class="date">%s</div></div></div>`, r.author, r.date)
	}
}

const articleFixture = `<html><body><div id="main-container"><div id="main-content" class="bbs-screen bbs-content">` +
	`<div class="article-metaline"><span class="article-meta-tag">作者</span><span class="article-meta-value">trader (小明)</span></div>` +
	`<div class="article-metaline-right"><span class="article-meta-tag">看板</span><span class="article-meta-value">Stock</span></div>` +
	`<div class="article-metaline"><span class="article-meta-tag">標題</span><span class="article-meta-value">[標的] 2330 台積電 多</span></div>` +
	`<div class="article-metaline"><span class="article-meta-tag">時間</span><span class="article-meta-value">Mon Apr 14 09:12:34 2025</span></div>
台積電法說會後展望樂觀
台積電法說會後展望樂觀
AI 需求強勁
--
※ 發信站: 批踢踢實業坊(ptt.cc), 來自: 1.2.3.4 (臺灣)
※ 文章網址: https://www.ptt.cc/bbs/Stock/M.1744593154.A.1.html
` +
	`<div class="push"><span class="hl push-tag">推 </span><span class="f3 hl push-userid">bull</span><span class="f3 push-content">: 噴</span><span class="push-ipdatetime"> 04/14 09:30</span></div>` +
	`<div class="push"><span class="f1 hl push-tag">噓 </span><span class="f3 hl push-userid">bear</span><span class="f3 push-content">: 要跌了</span><span class="push-ipdatetime"> 04/14 09:31</span></div>` +
	`<div class="push"><span class="f1 hl push-tag">→ </span><span class="f3 hl push-userid">calm</span><span class="f3 push-content">: 觀望: 等財報</span></div>` +
	`</div></div></body></html>`

// pageFetcher serves canned pages by URL; unknown URLs fail like a dead link.
type pageFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *pageFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("%w: GET %s: status 500", domain.ErrNetwork, url)
	}
	return page, nil
}
