package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

const (
	ActionApprove = "approve"
	ActionPage    = "page"

	previewLimit = 280
)

// Action is one button attached to a rendered page.
type Action struct {
	Label string
	Data  string
}

// RenderedPage is a single page of an operator notification.
type RenderedPage struct {
	Text       string
	Page       int
	TotalPages int
	TotalItems int
	ItemIDs    []string
	Actions    [][]Action
}

// TotalPages returns ceil(count / pageSize).
func TotalPages(count, pageSize int) int {
	if count <= 0 {
		return 0
	}
	if pageSize < 1 {
		pageSize = models.DefaultBatchPageSize
	}
	return (count + pageSize - 1) / pageSize
}

// SortForNotification orders items by relevance, highest first.
func SortForNotification(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score() != items[j].Score() {
			return items[i].Score() > items[j].Score()
		}
		if !items[i].PostedAt.Equal(items[j].PostedAt) {
			return items[i].PostedAt.Before(items[j].PostedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// RenderPage formats page (1-based) of the already sorted items. Out-of-range pages are
// clamped.
func RenderPage(items []models.Item, page, pageSize int, handles map[string]string) RenderedPage {
	if pageSize < 1 {
		pageSize = models.DefaultBatchPageSize
	}
	total := TotalPages(len(items), pageSize)
	if total == 0 {
		return RenderedPage{Text: "No new items.", Page: 1, TotalPages: 1}
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	out := RenderedPage{
		Page:       page,
		TotalPages: total,
		TotalItems: len(items),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d new item(s) for review (page %d/%d)\n", len(items), page, total)

	for i, item := range items[start:end] {
		n := start + i + 1
		out.ItemIDs = append(out.ItemIDs, item.ID)

		b.WriteString("\n")
		fmt.Fprintf(&b, "%d. [%d/10]", n, item.Score())
		if h := handles[item.AccountID]; h != "" {
			fmt.Fprintf(&b, " @%s", h)
		}
		if item.IsThread {
			b.WriteString(" (thread)")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s\n", preview(item.Text))
		if item.RelevanceReason != "" {
			fmt.Fprintf(&b, "Why: %s\n", item.RelevanceReason)
		}
		if item.URL != "" {
			fmt.Fprintf(&b, "%s\n", item.URL)
		}

		out.Actions = append(out.Actions, []Action{{
			Label: fmt.Sprintf("Draft #%d", n),
			Data:  fmt.Sprintf("%s:%s", ActionApprove, item.ID),
		}})
	}

	var nav []Action
	if page > 1 {
		nav = append(nav, Action{Label: "< Prev", Data: fmt.Sprintf("%s:%d", ActionPage, page-1)})
	}
	if page < total {
		nav = append(nav, Action{Label: "Next >", Data: fmt.Sprintf("%s:%d", ActionPage, page+1)})
	}
	if len(nav) > 0 {
		out.Actions = append(out.Actions, nav)
	}

	out.Text = strings.TrimRight(b.String(), "\n")
	return out
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLimit-3]) + "..."
}
