package services

import "github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"

// FilterPaid drops records whose mode requires online payment but which are not
// paid. Those represent abandoned checkouts rather than valid bookings.
// The input slice is not modified and the result keeps input order.
func FilterPaid(records []entities.Record) []entities.Record {
	out := make([]entities.Record, 0, len(records))
	for _, r := range records {
		if PaymentVisible(r) {
			out = append(out, r)
		}
	}
	return out
}

// PaymentVisible reports whether a single record passes the payment gate
func PaymentVisible(r entities.Record) bool {
	if entities.IsNilRecord(r) {
		return false
	}
	return !r.RequiresOnlinePayment() || r.Paid()
}
