package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Memoize", func() {
	var (
		c     *Cache[int]
		calls atomic.Int64
		fn    func(context.Context, string) (int, error)
	)

	BeforeEach(func() {
		c = New[int](Options{MaxSizeBytes: 1024, DefaultTTL: time.Minute})
		calls.Store(0)
		fn = func(ctx context.Context, arg string) (int, error) {
			calls.Add(1)
			return len(arg), nil
		}
	})

	It("should call the underlying function once per key", func() {
		memo := Memoize(c, func(s string) string { return s }, fn)

		v, err := memo(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(5))

		v, err = memo(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(5))

		Expect(calls.Load()).To(Equal(int64(1)))
	})

	It("should coalesce concurrent callers for the same key", func() {
		slow := func(ctx context.Context, arg string) (int, error) {
			calls.Add(1)
			time.Sleep(50 * time.Millisecond)
			return len(arg), nil
		}
		memo := Memoize(c, func(s string) string { return s }, slow)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := memo(context.Background(), "hello")
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(5))
			}()
		}
		wg.Wait()

		Expect(calls.Load()).To(Equal(int64(1)))
	})

	It("should not cache errors", func() {
		failing := true
		flaky := func(ctx context.Context, arg string) (int, error) {
			calls.Add(1)
			if failing {
				return 0, errors.New("boom")
			}
			return len(arg), nil
		}
		memo := Memoize(c, func(s string) string { return s }, flaky)

		_, err := memo(context.Background(), "hello")
		Expect(err).To(MatchError("boom"))

		failing = false
		v, err := memo(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(5))
		Expect(calls.Load()).To(Equal(int64(2)))
	})
})

var _ = Describe("MemoizeDebounced", func() {
	var (
		c     *Cache[int]
		calls atomic.Int64
	)

	BeforeEach(func() {
		c = New[int](Options{MaxSizeBytes: 1024, DefaultTTL: time.Minute})
		calls.Store(0)
	})

	It("should run the function once for rapid repeated calls", func() {
		fn := func(ctx context.Context, arg string) (int, error) {
			calls.Add(1)
			return len(arg), nil
		}
		memo := MemoizeDebounced(c, func(s string) string { return s }, fn, 20*time.Millisecond)

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := memo(context.Background(), "hello")
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(5))
			}()
		}
		wg.Wait()

		Expect(calls.Load()).To(Equal(int64(1)))
	})

	It("should serve later calls from the cache", func() {
		fn := func(ctx context.Context, arg string) (int, error) {
			calls.Add(1)
			return len(arg), nil
		}
		memo := MemoizeDebounced(c, func(s string) string { return s }, fn, 5*time.Millisecond)

		_, err := memo(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())

		_, err = memo(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())

		Expect(calls.Load()).To(Equal(int64(1)))
	})

	It("should allow a retry after a failed call", func() {
		failing := true
		fn := func(ctx context.Context, arg string) (int, error) {
			calls.Add(1)
			if failing {
				return 0, errors.New("boom")
			}
			return len(arg), nil
		}
		memo := MemoizeDebounced(c, func(s string) string { return s }, fn, time.Millisecond)

		_, err := memo(context.Background(), "hello")
		Expect(err).To(MatchError("boom"))

		failing = false
		v, err := memo(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(5))
	})

	It("should stop waiting when the caller's context is canceled", func() {
		fn := func(ctx context.Context, arg string) (int, error) {
			return len(arg), nil
		}
		memo := MemoizeDebounced(c, func(s string) string { return s }, fn, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := memo(ctx, "hello")
		Expect(err).To(MatchError(context.Canceled))
	})
})
