package student

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/icpschool/schoolpay/core"
)

// TotalUnpaid sums the amounts of all Unpaid line items. An empty sequence totals zero.
func TotalUnpaid(balances []Balance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		if b.IsUnpaid() {
			total = total.Add(b.Amount)
		}
	}
	return total
}

// Partition splits students into those owing at least one Unpaid line item and
// those owing none. A student with zero balances is settled. Every input
// student lands in exactly one of the two groups.
func Partition(students []Student) (unpaid, paid []Student) {
	unpaid = make([]Student, 0, len(students))
	paid = make([]Student, 0, len(students))
	for _, s := range students {
		if s.HasUnpaid() {
			unpaid = append(unpaid, s)
		} else {
			paid = append(paid, s)
		}
	}
	return unpaid, paid
}

// SortByName returns a copy ordered by name, ascending. The sort is stable and
// the collation case-sensitive.
func SortByName(students []Student) []Student {
	sorted := make([]Student, len(students))
	copy(sorted, students)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}

// Search does a case-insensitive substring match on name or student number.
// An empty term yields no results; listing the whole directory is a separate,
// deliberate operation.
func Search(students []Student, term string) []Student {
	term = core.CleanString(term, true /* lower */)
	matched := make([]Student, 0, len(students))
	if term == "" {
		return matched
	}
	for _, s := range students {
		if strings.Contains(strings.ToLower(s.Name), term) ||
			strings.Contains(strings.ToLower(s.StudentNumber), term) {
			matched = append(matched, s)
		}
	}
	return matched
}

// WithTotals decorates each student with its derived unpaid total.
func WithTotals(students []Student) []DirectoryEntry {
	entries := make([]DirectoryEntry, 0, len(students))
	for _, s := range students {
		entries = append(entries, DirectoryEntry{Student: s, TotalBalance: s.TotalBalance()})
	}
	return entries
}
