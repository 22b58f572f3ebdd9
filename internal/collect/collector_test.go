package collect

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/akoval/checkwatch/internal/history"
)

// mockFetcher is a mock implementation of Fetcher
type mockFetcher struct {
	html string
	err  error
}

func (m *mockFetcher) Fetch(ctx context.Context) (string, error) {
	return m.html, m.err
}

// mockStore is a mock implementation of history.Store
type mockStore struct {
	appended  []string
	appendErr error
}

func (m *mockStore) Append(url, rawContent string) (bool, error) {
	if m.appendErr != nil {
		return false, m.appendErr
	}
	if len(m.appended) > 0 && m.appended[len(m.appended)-1] == rawContent {
		return false, nil
	}
	m.appended = append(m.appended, rawContent)
	return true, nil
}

func (m *mockStore) LastRawContent() (string, error) {
	if len(m.appended) == 0 {
		return "", nil
	}
	return m.appended[len(m.appended)-1], nil
}

func (m *mockStore) LoadAll() ([]history.Record, error) { return nil, nil }

func (m *mockStore) LoadSince(since time.Time) ([]history.Record, error) { return nil, nil }

func (m *mockStore) Close() error { return nil }

var _ = Describe("Collector", func() {
	var (
		fetcher   *mockFetcher
		store     *mockStore
		collector *Collector
		delay     time.Duration
	)

	BeforeEach(func() {
		fetcher = &mockFetcher{}
		store = &mockStore{}
		collector = NewCollector(Config{
			URL:           "https://example.com/receipt",
			Interval:      10 * time.Second,
			ErrorInterval: time.Minute,
			MaxFailures:   3,
		}, fetcher, store)
	})

	JustBeforeEach(func() {
		delay = collector.runCycle(context.Background())
	})

	When("the page carries a receipt position", func() {
		BeforeEach(func() {
			fetcher.html = `<div class="chekPosition"><p>Парацетамол 500мг таблетки</p></div>`
		})

		It("appends the extracted content", func() {
			Expect(store.appended).To(HaveLen(1))
			Expect(store.appended[0]).To(Equal("Парацетамол 500мг таблетки"))
		})

		It("waits the normal interval", func() {
			Expect(delay).To(Equal(10 * time.Second))
		})
	})

	When("the same content comes back on the next cycle", func() {
		BeforeEach(func() {
			fetcher.html = `<div class="chekPosition"><p>Парацетамол 500мг таблетки</p></div>`
			collector.runCycle(context.Background())
		})

		It("short-circuits before reaching the store", func() {
			Expect(store.appended).To(HaveLen(1))
		})
	})

	When("the fetch returns no content", func() {
		BeforeEach(func() {
			fetcher.html = ""
		})

		It("skips the store and waits the normal interval", func() {
			Expect(store.appended).To(BeEmpty())
			Expect(delay).To(Equal(10 * time.Second))
		})
	})

	When("the page has no position container", func() {
		BeforeEach(func() {
			fetcher.html = `<html><body><p>empty shell</p></body></html>`
		})

		It("treats it as no content", func() {
			Expect(store.appended).To(BeEmpty())
			Expect(delay).To(Equal(10 * time.Second))
		})
	})

	When("the fetch fails", func() {
		BeforeEach(func() {
			fetcher.err = errors.New("connection refused")
		})

		It("waits the error interval", func() {
			Expect(delay).To(Equal(time.Minute))
		})

		It("does not touch the store", func() {
			Expect(store.appended).To(BeEmpty())
		})
	})

	When("failures reach the configured maximum", func() {
		BeforeEach(func() {
			fetcher.err = errors.New("connection refused")
			collector.runCycle(context.Background())
			collector.runCycle(context.Background())
		})

		It("doubles the error delay", func() {
			Expect(delay).To(Equal(2 * time.Minute))
		})
	})

	When("a success follows failures", func() {
		BeforeEach(func() {
			fetcher.err = errors.New("connection refused")
			collector.runCycle(context.Background())
			fetcher.err = nil
			fetcher.html = `<div class="chekPosition"><p>Парацетамол 500мг таблетки</p></div>`
		})

		It("resets the failure count", func() {
			Expect(collector.failures).To(BeZero())
			Expect(delay).To(Equal(10 * time.Second))
		})
	})

	When("the store append fails", func() {
		BeforeEach(func() {
			fetcher.html = `<div class="chekPosition"><p>Парацетамол 500мг таблетки</p></div>`
			store.appendErr = errors.New("disk full")
		})

		It("keeps polling at the normal interval", func() {
			Expect(delay).To(Equal(10 * time.Second))
		})

		It("leaves the comparator unset so the next cycle retries the save", func() {
			Expect(collector.lastContent).To(BeEmpty())
		})
	})
})
