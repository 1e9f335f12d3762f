package agent_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/triage-agent/pkg/agent"
)

var _ = Describe("Agent", func() {
	var runner *fakeRunner

	BeforeEach(func() {
		runner = &fakeRunner{}
	})

	It("requires a cycle runner", func() {
		_, err := agent.New(agent.Config{Logger: newTestLogger()})
		Expect(err).To(MatchError(ContainSubstring("cycle runner is required")))
	})

	It("registers the default tasks", func() {
		a, err := agent.New(agent.Config{Runner: runner, Logger: newTestLogger()})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Tasks()).To(ConsistOf(agent.TaskPoll))
	})

	It("skips disabled tasks", func() {
		a, err := agent.New(agent.Config{
			Runner: runner,
			Logger: newTestLogger(),
			Tasks:  map[agent.TaskType]agent.TaskConfig{agent.TaskPoll: {Enabled: false}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Tasks()).To(BeEmpty())
	})

	It("rejects unknown task types", func() {
		_, err := agent.New(agent.Config{
			Runner: runner,
			Tasks: map[agent.TaskType]agent.TaskConfig{
				"publish": {Enabled: true, Schedule: "@every 1m", Timeout: time.Minute},
			},
		})
		Expect(err).To(MatchError(ContainSubstring("unknown task type")))
	})

	It("refuses a duplicate task", func() {
		a, err := agent.New(agent.Config{Runner: runner, Logger: newTestLogger()})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.AddTask(agent.NewPollTask(runner, agent.TaskConfig{}, newTestLogger()))).NotTo(Succeed())

		a.RemoveTask(agent.TaskPoll)
		Expect(a.Tasks()).To(BeEmpty())
	})

	It("runs its tasks until the context ends", func() {
		a, err := agent.New(agent.Config{
			Runner: runner,
			Logger: newTestLogger(),
			Tasks: map[agent.TaskType]agent.TaskConfig{
				agent.TaskPoll: {Enabled: true, Schedule: "@every 1h", Timeout: time.Minute, RunOnStart: true},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- a.Run(ctx) }()

		Eventually(runner.Calls).Should(Equal(1))
		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})
})

var _ = Describe("Task configuration", func() {
	DescribeTable("ParseSchedule",
		func(spec string, valid bool) {
			_, err := agent.ParseSchedule(spec)
			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("descriptor", "@every 1m", true),
		Entry("five fields", "*/5 * * * *", true),
		Entry("hourly", "@hourly", true),
		Entry("garbage", "whenever", false),
		Entry("empty", "", false),
	)

	It("validates only enabled tasks", func() {
		Expect(agent.ValidateTaskConfigs(map[agent.TaskType]agent.TaskConfig{
			agent.TaskPoll: {Enabled: false, Schedule: "nope"},
		})).To(Succeed())

		Expect(agent.ValidateTaskConfigs(map[agent.TaskType]agent.TaskConfig{
			agent.TaskPoll: {Enabled: true, Schedule: "nope", Timeout: time.Minute},
		})).NotTo(Succeed())

		Expect(agent.ValidateTaskConfigs(map[agent.TaskType]agent.TaskConfig{
			agent.TaskPoll: {Enabled: true, Schedule: "@every 1m"},
		})).To(MatchError(ContainSubstring("timeout must be positive")))
	})

	It("reports whether a task is enabled", func() {
		Expect(agent.IsTaskEnabled(agent.DefaultTaskConfigs, agent.TaskPoll)).To(BeTrue())
		Expect(agent.IsTaskEnabled(nil, agent.TaskPoll)).To(BeFalse())
	})
})
