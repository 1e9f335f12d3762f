package pipeline_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

var _ = Describe("SelectChunk", func() {
	const window = 15 * time.Minute

	accounts := func(n int) []models.WatchedAccount {
		out := make([]models.WatchedAccount, n)
		for i := range out {
			out[i] = models.WatchedAccount{ID: fmt.Sprintf("a%02d", i)}
		}
		return out
	}

	ids := func(chunk []models.WatchedAccount) []string {
		out := make([]string, len(chunk))
		for i, a := range chunk {
			out[i] = a.ID
		}
		return out
	}

	at := func(cycle int) time.Time {
		return time.Unix(0, 0).Add(time.Duration(cycle) * window)
	}

	It("returns every account when they fit in one chunk", func() {
		all := accounts(10)
		Expect(pipeline.SelectChunk(all, 10, window, at(7))).To(HaveLen(10))
		Expect(pipeline.SelectChunk(nil, 10, window, at(7))).To(BeEmpty())
	})

	It("rotates 25 accounts through three chunks of ten", func() {
		all := accounts(25)

		Expect(ids(pipeline.SelectChunk(all, 10, window, at(0)))).To(Equal(ids(all[0:10])))
		Expect(ids(pipeline.SelectChunk(all, 10, window, at(1)))).To(Equal(ids(all[10:20])))
		Expect(ids(pipeline.SelectChunk(all, 10, window, at(2)))).To(Equal(ids(all[20:25])))
		Expect(ids(pipeline.SelectChunk(all, 10, window, at(3)))).To(Equal(ids(all[0:10])))
	})

	It("picks the same chunk anywhere inside a window", func() {
		all := accounts(25)
		start := at(4)
		first := ids(pipeline.SelectChunk(all, 10, window, start))
		Expect(ids(pipeline.SelectChunk(all, 10, window, start.Add(window-time.Second)))).To(Equal(first))
	})

	It("visits every account within one rotation", func() {
		all := accounts(25)
		seen := map[string]int{}
		for cycle := 100; cycle < 103; cycle++ {
			for _, a := range pipeline.SelectChunk(all, 10, window, at(cycle)) {
				seen[a.ID]++
			}
		}
		Expect(seen).To(HaveLen(25))
		for id, n := range seen {
			Expect(n).To(Equal(1), id)
		}
	})

	It("falls back to defaults for bad sizes", func() {
		all := accounts(12)
		Expect(pipeline.SelectChunk(all, 0, 0, at(0))).To(HaveLen(pipeline.DefaultChunkSize))
	})
})

var _ = Describe("Pool", func() {
	It("dedups and keeps insertion order", func() {
		pool := pipeline.NewPool()
		Expect(pool.Add("a", "b", "a")).To(Equal(2))
		Expect(pool.Add("c", "b")).To(Equal(1))
		Expect(pool.Len()).To(Equal(3))
		Expect(pool.Contains("c")).To(BeTrue())
		Expect(pool.Take(0)).To(Equal([]string{"a", "b", "c"}))
		Expect(pool.Take(2)).To(Equal([]string{"a", "b"}))
	})
})

var _ = Describe("Classify", func() {
	It("separates standalone posts, self-replies and foreign replies", func() {
		Expect(pipeline.Classify(post("1", 0), "me")).To(Equal(pipeline.Standalone))
		Expect(pipeline.Classify(reply("2", "1", "me", 1), "me")).To(Equal(pipeline.Continuation))
		Expect(pipeline.Classify(reply("3", "1", "someone", 2), "me")).To(Equal(pipeline.Foreign))
		Expect(pipeline.Classify(reply("4", "1", "", 3), "me")).To(Equal(pipeline.Foreign))
	})
})
