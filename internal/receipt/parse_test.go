package receipt

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseItem", func() {
	var (
		lines []string
		item  *SaleItem
	)

	JustBeforeEach(func() {
		item = ParseItem(lines)
	})

	When("the input is empty", func() {
		BeforeEach(func() {
			lines = nil
		})

		It("returns nil", func() {
			Expect(item).To(BeNil())
		})
	})

	When("a tax code line is present", func() {
		BeforeEach(func() {
			lines = []string{"УКТЗЕД 1234567890"}
		})

		It("extracts the tax code", func() {
			Expect(item).NotTo(BeNil())
			Expect(item.TaxCode).To(Equal("1234567890"))
		})

		It("keeps the default quantity and currency", func() {
			Expect(item.Quantity).To(Equal("1"))
			Expect(item.Currency).To(Equal("UAH"))
		})
	})

	When("a price pattern and a breakdown line are present", func() {
		BeforeEach(func() {
			lines = []string{
				"Парацетамол 500мг таблетки",
				"163.9 * 1 шт",
				"163.90 (Б)",
			}
		})

		It("extracts the unit price", func() {
			Expect(item.UnitPrice).To(Equal("163.9"))
		})

		It("extracts the quantity", func() {
			Expect(item.Quantity).To(Equal("1"))
		})

		It("extracts the total price", func() {
			Expect(item.TotalPrice).To(Equal("163.90"))
		})

		It("keeps the raw matched lines for audit", func() {
			Expect(item.PriceDetails).To(Equal("163.9 * 1 шт"))
			Expect(item.PriceBreakdown).To(Equal("163.90 (Б)"))
		})
	})

	When("only a unit price pattern is present", func() {
		BeforeEach(func() {
			lines = []string{
				"Аспірин таблетки №10",
				"50.00 * 2 шт",
			}
		})

		It("derives the total as unit times quantity", func() {
			Expect(item.TotalPrice).To(Equal("100.00"))
		})
	})

	When("only a total and a quantity above one are present", func() {
		BeforeEach(func() {
			lines = []string{
				"Вітамін C шипучі таблетки",
				"Штрих-код 4820000123456",
				"* 4 шт",
				"100.00 (Б)",
			}
		})

		It("derives the unit price as total divided by quantity", func() {
			Expect(item.UnitPrice).To(Equal("25.00"))
		})
	})

	When("the quantity is not numeric for derivation", func() {
		BeforeEach(func() {
			lines = []string{
				"Назальний спрей дозований",
				"Штрих-код 123",
			}
		})

		It("still returns the item without derived prices", func() {
			Expect(item).NotTo(BeNil())
			Expect(item.UnitPrice).To(BeEmpty())
			Expect(item.TotalPrice).To(BeEmpty())
		})
	})

	When("a comma decimal separator is used in the unit price", func() {
		BeforeEach(func() {
			lines = []string{
				"Ібупрофен капсули 200мг",
				"21,45 * 2 шт",
			}
		})

		It("normalizes the separator before deriving", func() {
			Expect(item.TotalPrice).To(Equal("42.90"))
		})
	})

	When("the only line is a bare number", func() {
		BeforeEach(func() {
			lines = []string{"42"}
		})

		It("returns nil because no identifying field was found", func() {
			Expect(item).To(BeNil())
		})
	})

	When("several free text candidates exist", func() {
		BeforeEach(func() {
			lines = []string{
				"Знижка",
				"Амоксицилін 500мг капсули №20",
				"Чек 1234",
			}
		})

		It("picks the longest candidate as the product name", func() {
			Expect(item.ProductName).To(Equal("Амоксицилін 500мг капсули №20"))
		})
	})

	When("two candidates share the maximal length", func() {
		BeforeEach(func() {
			lines = []string{
				"Перший довгий рядок",
				"Другий довгий рядок",
			}
		})

		It("keeps the first occurrence in scan order", func() {
			Expect(item.ProductName).To(Equal("Перший довгий рядок"))
		})
	})

	When("every candidate is filtered out", func() {
		BeforeEach(func() {
			// "Мазь" is shorter than five runes, so it fails the candidate
			// filter but survives as the first unmatched line.
			lines = []string{
				"Мазь",
				"УКТЗЕД 5555",
			}
		})

		It("falls back to the first unmatched line", func() {
			Expect(item.ProductName).To(Equal("Мазь"))
		})
	})

	When("duplicate field lines appear", func() {
		BeforeEach(func() {
			lines = []string{
				"УКТЗЕД 1111",
				"УКТЗЕД 2222",
				"10.0 * 1 шт",
				"20.0 * 1 шт",
			}
		})

		It("keeps the first tax code", func() {
			Expect(item.TaxCode).To(Equal("1111"))
		})

		It("keeps the first price details line", func() {
			Expect(item.PriceDetails).To(Equal("10.0 * 1 шт"))
			Expect(item.UnitPrice).To(Equal("10.0"))
		})
	})

	When("the first breakdown line carries no amount", func() {
		BeforeEach(func() {
			lines = []string{
				"Парацетамол 500мг таблетки",
				"ПДВ 20% (Б)",
				"163.90 (Б)",
			}
		})

		It("keeps the first breakdown line", func() {
			Expect(item.PriceBreakdown).To(Equal("ПДВ 20% (Б)"))
		})

		It("takes the total from the later breakdown line", func() {
			Expect(item.TotalPrice).To(Equal("163.90"))
		})
	})

	When("a second bare number follows a recorded total", func() {
		BeforeEach(func() {
			lines = []string{
				"Лоратадин таблетки №10",
				"55.5",
				"99.9",
			}
		})

		It("keeps the first bare number as the total", func() {
			Expect(item.TotalPrice).To(Equal("55.5"))
		})
	})
})

var _ = Describe("Parse", func() {
	var (
		raw   string
		items []SaleItem
	)

	JustBeforeEach(func() {
		items = Parse(raw)
	})

	When("the block is empty", func() {
		BeforeEach(func() {
			raw = "  \n \n"
		})

		It("returns no items", func() {
			Expect(items).To(BeEmpty())
		})
	})

	When("the separator is absent", func() {
		BeforeEach(func() {
			raw = "Парацетамол 500мг таблетки\n163.9 * 1 шт\n163.90 (Б)"
		})

		It("returns at most one item", func() {
			Expect(items).To(HaveLen(1))
		})

		It("assigns index zero", func() {
			Expect(items[0].ItemIndex).To(Equal(0))
		})
	})

	When("the block holds several separated items", func() {
		BeforeEach(func() {
			raw = strings.Join([]string{
				"Парацетамол 500мг таблетки\n163.9 * 1 шт",
				"Аспірин таблетки №10\n50.00 * 2 шт",
			}, "\n"+ItemSeparator+"\n")
		})

		It("returns one item per segment in order", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].ProductName).To(Equal("Парацетамол 500мг таблетки"))
			Expect(items[1].ProductName).To(Equal("Аспірин таблетки №10"))
		})

		It("indexes items by segment position", func() {
			Expect(items[0].ItemIndex).To(Equal(0))
			Expect(items[1].ItemIndex).To(Equal(1))
		})
	})

	When("a middle segment yields no data", func() {
		BeforeEach(func() {
			raw = strings.Join([]string{
				"Парацетамол 500мг таблетки\n163.9 * 1 шт",
				"42",
				"Аспірин таблетки №10",
			}, "\n"+ItemSeparator+"\n")
		})

		It("drops the segment but keeps positional indexes", func() {
			Expect(items).To(HaveLen(2))
			Expect(items[0].ItemIndex).To(Equal(0))
			Expect(items[1].ItemIndex).To(Equal(2))
		})
	})
})
