package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
)

var _ = Describe("NewMux", func() {
	var server *httptest.Server

	BeforeEach(func() {
		extra := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		server = httptest.NewServer(metrics.NewMux(metrics.Route{Pattern: "/actions", Handler: extra}))
		DeferCleanup(server.Close)
	})

	get := func(path string) (int, string) {
		resp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, string(body)
	}

	It("answers health checks", func() {
		status, _ := get("/health")
		Expect(status).To(Equal(http.StatusOK))
	})

	It("exports the triage counters", func() {
		metrics.IncAPIRetry("user_tweets")
		metrics.Cycles.WithLabelValues("ok").Inc()

		status, body := get("/metrics")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`triage_api_retries_total{route="user_tweets"}`))
		Expect(body).To(ContainSubstring(`triage_cycles_total{outcome="ok"}`))
		Expect(body).To(ContainSubstring("triage_cycle_duration_seconds"))
	})

	It("mounts extra routes", func() {
		status, _ := get("/actions")
		Expect(status).To(Equal(http.StatusAccepted))
	})
})
