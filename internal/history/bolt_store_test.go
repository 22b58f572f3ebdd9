package history

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltStore", func() {
	var store *BoltStore

	BeforeEach(func() {
		var err error
		store, err = NewBoltStore(filepath.Join(GinkgoT().TempDir(), "history.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Append", func() {
		When("the history is empty", func() {
			It("writes a record and round-trips the raw content", func() {
				added, err := store.Append(testURL, "УКТЗЕД 1234\n163.9 * 1 шт")
				Expect(err).NotTo(HaveOccurred())
				Expect(added).To(BeTrue())

				records, err := store.LoadAll()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
				Expect(records[0].RawContent).To(Equal("УКТЗЕД 1234\n163.9 * 1 шт"))
				Expect(records[0].Items).To(HaveLen(1))
			})
		})

		When("the same content is appended twice", func() {
			It("treats the second call as a no-op", func() {
				_, err := store.Append(testURL, "УКТЗЕД 1234")
				Expect(err).NotTo(HaveOccurred())
				added, err := store.Append(testURL, "УКТЗЕД 1234")
				Expect(err).NotTo(HaveOccurred())
				Expect(added).To(BeFalse())

				records, err := store.LoadAll()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
			})
		})

		When("the history exceeds the capacity", func() {
			BeforeEach(func() {
				store.cap = 3
				for _, content := range []string{"УКТЗЕД 1", "УКТЗЕД 2", "УКТЗЕД 3", "УКТЗЕД 4"} {
					added, err := store.Append(testURL, content)
					Expect(err).NotTo(HaveOccurred())
					Expect(added).To(BeTrue())
				}
			})

			It("evicts the oldest record and preserves order", func() {
				records, err := store.LoadAll()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(3))
				Expect(records[0].RawContent).To(Equal("УКТЗЕД 2"))
				Expect(records[2].RawContent).To(Equal("УКТЗЕД 4"))
			})
		})
	})

	Describe("LastRawContent", func() {
		When("the history is empty", func() {
			It("returns an empty string", func() {
				raw, err := store.LastRawContent()
				Expect(err).NotTo(HaveOccurred())
				Expect(raw).To(BeEmpty())
			})
		})

		When("records exist", func() {
			It("returns the newest record's raw content", func() {
				_, err := store.Append(testURL, "УКТЗЕД 1111")
				Expect(err).NotTo(HaveOccurred())
				_, err = store.Append(testURL, "УКТЗЕД 2222")
				Expect(err).NotTo(HaveOccurred())

				raw, err := store.LastRawContent()
				Expect(err).NotTo(HaveOccurred())
				Expect(raw).To(Equal("УКТЗЕД 2222"))
			})
		})
	})

	Describe("LoadSince", func() {
		BeforeEach(func() {
			clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
			store.now = func() time.Time {
				clock = clock.Add(time.Hour)
				return clock
			}
			for _, content := range []string{"УКТЗЕД 1", "УКТЗЕД 2", "УКТЗЕД 3"} {
				_, err := store.Append(testURL, content)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("keeps records at or after the cutoff", func() {
			records, err := store.LoadSince(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].RawContent).To(Equal("УКТЗЕД 3"))
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			err := store.Close()
			Expect(err).NotTo(HaveOccurred())
			store = nil
		})
	})
})
