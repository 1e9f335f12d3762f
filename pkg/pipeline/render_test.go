package pipeline_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

var _ = Describe("RenderPage", func() {
	scored := func(id string, score int) models.Item {
		return models.Item{
			ID:              id,
			AccountID:       "acct-1",
			Text:            "text " + id,
			RelevanceScore:  ptr(score),
			RelevanceReason: "reason " + id,
			URL:             "https://x.com/i/web/status/" + id,
		}
	}

	DescribeTable("TotalPages",
		func(count, size, want int) {
			Expect(pipeline.TotalPages(count, size)).To(Equal(want))
		},
		Entry("empty", 0, 5, 0),
		Entry("exact", 10, 5, 2),
		Entry("remainder", 11, 5, 3),
		Entry("bad page size uses default", 6, 0, 2),
	)

	It("sorts by score descending", func() {
		items := []models.Item{scored("a", 3), scored("b", 9), scored("c", 6)}
		pipeline.SortForNotification(items)
		Expect([]string{items[0].ID, items[1].ID, items[2].ID}).To(Equal([]string{"b", "c", "a"}))
	})

	It("renders one page with approve and next buttons", func() {
		var items []models.Item
		for i := 0; i < 7; i++ {
			items = append(items, scored(fmt.Sprintf("i%d", i), 10-i))
		}

		page := pipeline.RenderPage(items, 1, 3, map[string]string{"acct-1": "alice"})
		Expect(page.Page).To(Equal(1))
		Expect(page.TotalPages).To(Equal(3))
		Expect(page.TotalItems).To(Equal(7))
		Expect(page.ItemIDs).To(Equal([]string{"i0", "i1", "i2"}))
		Expect(page.Text).To(ContainSubstring("page 1/3"))
		Expect(page.Text).To(ContainSubstring("[10/10] @alice"))
		Expect(page.Text).To(ContainSubstring("Why: reason i0"))

		Expect(page.Actions).To(HaveLen(4))
		Expect(page.Actions[0][0].Data).To(Equal("approve:i0"))
		Expect(page.Actions[3]).To(Equal([]pipeline.Action{{Label: "Next >", Data: "page:2"}}))
	})

	It("clamps out-of-range pages and offers only a previous button on the last page", func() {
		items := []models.Item{scored("a", 9), scored("b", 8), scored("c", 7)}
		page := pipeline.RenderPage(items, 9, 2, nil)
		Expect(page.Page).To(Equal(2))
		Expect(page.ItemIDs).To(Equal([]string{"c"}))
		Expect(page.Text).To(HavePrefix("3 new item(s) for review (page 2/2)"))
		last := page.Actions[len(page.Actions)-1]
		Expect(last).To(Equal([]pipeline.Action{{Label: "< Prev", Data: "page:1"}}))
	})

	It("marks threads and truncates long text", func() {
		item := scored("t", 8)
		item.IsThread = true
		item.Text = strings.Repeat("x", 400)
		page := pipeline.RenderPage([]models.Item{item}, 1, 5, nil)
		Expect(page.Text).To(ContainSubstring("(thread)"))
		Expect(page.Text).To(ContainSubstring(strings.Repeat("x", 277) + "..."))
		Expect(page.Text).NotTo(ContainSubstring(strings.Repeat("x", 278)))
	})

	It("renders an empty batch", func() {
		page := pipeline.RenderPage(nil, 1, 5, nil)
		Expect(page.Text).To(Equal("No new items."))
		Expect(page.ItemIDs).To(BeEmpty())
	})
})
