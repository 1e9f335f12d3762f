package lock_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/lock"
)

var _ = Describe("LocalLocker", func() {
	var (
		locker *lock.LocalLocker
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		locker = lock.NewLocalLocker()
	})

	It("admits one holder per key", func() {
		release, ok, err := locker.TryLock(ctx, "op-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		_, ok, _ = locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeFalse())

		_, ok, _ = locker.TryLock(ctx, "op-2")
		Expect(ok).To(BeTrue())

		release()
		release()
		_, ok, _ = locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())
	})
})

var _ = Describe("RedisLocker", func() {
	const ttl = time.Minute

	var (
		server *miniredis.Miniredis
		locker *lock.RedisLocker
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		server, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Close)

		logger := logrus.New()
		logger.SetOutput(GinkgoWriter)

		locker = lock.NewRedisLocker(redis.NewClient(&redis.Options{Addr: server.Addr()}), "triage:", ttl, logger)
		DeferCleanup(locker.Close)
	})

	It("sets a prefixed key with the TTL", func() {
		_, ok, err := locker.TryLock(ctx, "op-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(server.Exists("triage:op-1")).To(BeTrue())
		Expect(server.TTL("triage:op-1")).To(Equal(ttl))
	})

	It("refuses a held key until it is released", func() {
		release, ok, _ := locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())

		_, ok, err := locker.TryLock(ctx, "op-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		release()
		Expect(server.Exists("triage:op-1")).To(BeFalse())

		_, ok, _ = locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())
	})

	It("frees the key when the holder never releases", func() {
		_, ok, _ := locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())

		server.FastForward(ttl + time.Second)

		_, ok, _ = locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())
	})

	It("does not release a lock taken over by another holder", func() {
		stale, ok, _ := locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())

		server.FastForward(ttl + time.Second)
		_, ok, _ = locker.TryLock(ctx, "op-1")
		Expect(ok).To(BeTrue())

		stale()
		Expect(server.Exists("triage:op-1")).To(BeTrue())
	})

	Describe("NewRedisLockerFromURL", func() {
		It("connects to a reachable server", func() {
			l, err := lock.NewRedisLockerFromURL(ctx, "redis://"+server.Addr(), "x:", 0, logrus.New())
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Close()).To(Succeed())
		})

		It("rejects a malformed url", func() {
			_, err := lock.NewRedisLockerFromURL(ctx, "://nope", "x:", 0, logrus.New())
			Expect(err).To(MatchError(ContainSubstring("invalid redis url")))
		})
	})
})
