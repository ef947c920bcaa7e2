package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Field extractors", func() {
	var tables Tables

	BeforeEach(func() {
		tables = DefaultTables()
	})

	Describe("ExtractDate", func() {
		var (
			raw  string
			date time.Time
			ok   bool
		)

		JustBeforeEach(func() {
			date, ok = ExtractDate(tables.Classify(raw))
		})

		When("the date is day-month-year with a short year", func() {
			BeforeEach(func() {
				raw = "Rechnung vom 05.03.24"
			})

			It("expands the year into the 2000s", func() {
				Expect(ok).To(BeTrue())
				Expect(date.Format(DateLayout)).To(Equal("2024-03-05"))
			})
		})

		When("the date is year-month-day", func() {
			BeforeEach(func() {
				raw = "2024-03-05 Kassenbon"
			})

			It("parses it", func() {
				Expect(ok).To(BeTrue())
				Expect(date.Format(DateLayout)).To(Equal("2024-03-05"))
			})
		})

		When("the short year is 70 or later", func() {
			BeforeEach(func() {
				raw = "31/12/99"
			})

			It("windows it into the 1900s", func() {
				Expect(date.Format(DateLayout)).To(Equal("1999-12-31"))
			})
		})

		When("the first date is impossible", func() {
			BeforeEach(func() {
				raw = "Beleg 32.13.99\nDatum 01.02.2023"
			})

			It("continues with the next line", func() {
				Expect(ok).To(BeTrue())
				Expect(date.Format(DateLayout)).To(Equal("2023-02-01"))
			})
		})

		When("a component is zero", func() {
			BeforeEach(func() {
				raw = "00.03.2024"
			})

			It("finds no date", func() {
				Expect(ok).To(BeFalse())
			})
		})

		When("the day overflows the month", func() {
			BeforeEach(func() {
				raw = "31.02.2024"
			})

			It("finds no date", func() {
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("ExtractAmount", func() {
		var (
			raw    string
			amount float64
			ok     bool
		)

		JustBeforeEach(func() {
			amount, ok = tables.ExtractAmount(tables.Classify(raw))
		})

		When("a line price equals the total", func() {
			BeforeEach(func() {
				raw = "Pizza Margherita 18.50\nTotal CHF 18.50"
			})

			It("selects the total", func() {
				Expect(ok).To(BeTrue())
				Expect(amount).To(Equal(18.50))
			})
		})

		When("a larger price has no total label", func() {
			BeforeEach(func() {
				raw = "Grill Set 249.00\nSumme 12.40"
			})

			It("prefers the labelled amount", func() {
				Expect(amount).To(Equal(12.40))
			})
		})

		When("amounts use swiss thousand separators", func() {
			BeforeEach(func() {
				raw = "Gesamtbetrag CHF 1'234.50"
			})

			It("parses the full value", func() {
				Expect(amount).To(Equal(1234.50))
			})
		})

		When("no line has a label", func() {
			BeforeEach(func() {
				raw = "Brot 3.20\nMilch 1.80"
			})

			It("falls back to the largest price", func() {
				Expect(amount).To(Equal(3.20))
			})
		})

		When("an unlabelled price is above a thousand", func() {
			BeforeEach(func() {
				raw = "Kaffeemaschine 1'299.00\nTotal 12.50"
			})

			It("still prefers the labelled total", func() {
				Expect(amount).To(Equal(12.50))
			})
		})

		When("a labelled total comes before a larger bare price", func() {
			BeforeEach(func() {
				raw = "Total 7.00\n1007.00"
			})

			It("keeps the labelled total", func() {
				Expect(amount).To(Equal(7.00))
			})
		})

		When("a larger bare price comes before the labelled total", func() {
			BeforeEach(func() {
				raw = "1007.00\nTotal 7.00"
			})

			It("replaces it with the labelled total", func() {
				Expect(amount).To(Equal(7.00))
			})
		})

		When("two totals differ only in their currency label", func() {
			BeforeEach(func() {
				raw = "Summe 40.00\nTotal CHF 38.00"
			})

			It("prefers the line with the currency", func() {
				Expect(amount).To(Equal(38.00))
			})
		})

		When("a time follows the date", func() {
			BeforeEach(func() {
				raw = "Brot 3.20\n12.03.2024 14.22"
			})

			It("does not read the time as an amount", func() {
				Expect(amount).To(Equal(3.20))
			})
		})

		When("there are only dates and percentages", func() {
			BeforeEach(func() {
				raw = "12.03.2024\nMWST 8.1%"
			})

			It("finds no amount", func() {
				Expect(ok).To(BeFalse())
			})
		})

		When("the only amount is zero", func() {
			BeforeEach(func() {
				raw = "Total 0.00"
			})

			It("finds no amount", func() {
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("ExtractTaxRate", func() {
		var (
			raw  string
			rate float64
			ok   bool
		)

		JustBeforeEach(func() {
			rate, ok = tables.ExtractTaxRate(tables.Classify(raw))
		})

		When("a tax line carries a percentage", func() {
			BeforeEach(func() {
				raw = "MWST 8.1%"
			})

			It("extracts the rate", func() {
				Expect(ok).To(BeTrue())
				Expect(rate).To(Equal(8.1))
			})
		})

		When("the rate uses a decimal comma", func() {
			BeforeEach(func() {
				raw = "IVA 2,6 %"
			})

			It("parses it", func() {
				Expect(rate).To(Equal(2.6))
			})
		})

		When("the percentage is not on a tax line", func() {
			BeforeEach(func() {
				raw = "Rabatt 10%"
			})

			It("ignores it", func() {
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("ExtractItems", func() {
		var (
			raw   string
			items []string
		)

		JustBeforeEach(func() {
			items = tables.ExtractItems(tables.Classify(raw))
		})

		When("items carry their prices", func() {
			BeforeEach(func() {
				raw = "Brot 3.20\nMilch CHF 1.80\nTOTAL CHF 5.00"
			})

			It("strips the prices", func() {
				Expect(items).To(Equal([]string{"Brot", "Milch"}))
			})
		})

		When("a price sits on the next line", func() {
			BeforeEach(func() {
				raw = "Kaffeebecher 100 Stk\n24.90\nDeckel\nCHF 6.50"
			})

			It("pairs the lines", func() {
				Expect(items).To(Equal([]string{"Kaffeebecher 100 Stk", "Deckel"}))
			})
		})

		When("the remainder is too short", func() {
			BeforeEach(func() {
				raw = "Ei 0.60\nButter 2.95"
			})

			It("drops it", func() {
				Expect(items).To(Equal([]string{"Butter"}))
			})
		})

		When("there are more than six items", func() {
			BeforeEach(func() {
				raw = "Apfel 1.00\nBirne 1.10\nTraube 1.20\nKiwi 1.30\nMango 1.40\nBanane 1.50\nZitrone 1.60"
			})

			It("keeps six", func() {
				Expect(items).To(HaveLen(6))
				Expect(items[5]).To(Equal("Banane"))
			})
		})

		When("no line has a price", func() {
			BeforeEach(func() {
				raw = "Metzgerei Keller\nAufschnitt\nSchinken\nSalami\nBratwurst\nTotal"
			})

			It("falls back to four candidates", func() {
				Expect(items).To(Equal([]string{"Metzgerei Keller", "Aufschnitt", "Schinken", "Salami"}))
			})
		})
	})

	Describe("ExtractDescription", func() {
		It("takes the first item candidate", func() {
			lines := tables.Classify("12.03.2024\nBäckerei Huber\nBrot 3.20")
			d, ok := ExtractDescription(lines, nil)
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal("Bäckerei Huber"))
		})

		It("prefers the first item over a shop header", func() {
			lines := tables.Classify("MIGROS\nBrot 3.20\nMilch 1.80")
			d, ok := ExtractDescription(lines, []string{"Brot", "Milch"})
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal("Brot"))
		})

		It("keeps a candidate that follows a priced line", func() {
			lines := tables.Classify("Brot 3.20\nKundenkarte Gold")
			d, _ := ExtractDescription(lines, []string{"Brot"})
			Expect(d).To(Equal("Brot 3.20"))
		})

		It("falls back to the first item", func() {
			d, ok := ExtractDescription(tables.Classify("12.03.2024"), []string{"Deckel"})
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal("Deckel"))
		})

		It("reports nothing when there is nothing", func() {
			_, ok := ExtractDescription(nil, nil)
			Expect(ok).To(BeFalse())
		})
	})
})
