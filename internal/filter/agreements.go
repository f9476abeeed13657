package filter

import "github.com/nhle/bizdash/internal/model"

// CountAgreementsByStatus tallies agreements by the selected status field.
// Every known status is present in the result, possibly with zero.
func CountAgreementsByStatus(
	agreements []model.Agreement,
	field model.StatusField,
) map[model.AgreementStatus]int {
	counts := make(map[model.AgreementStatus]int, len(model.AgreementStatuses))
	for _, s := range model.AgreementStatuses {
		counts[s] = 0
	}
	for _, a := range agreements {
		counts[a.StatusOf(field)]++
	}
	return counts
}

// FilterAgreements returns agreements in listID (when set) whose selected
// status field equals status (when set), in input order.
func FilterAgreements(
	agreements []model.Agreement,
	listID *string,
	status *model.AgreementStatus,
	field model.StatusField,
) []model.Agreement {
	out := make([]model.Agreement, 0, len(agreements))
	for _, a := range agreements {
		if listID != nil && a.ListID != *listID {
			continue
		}
		if status != nil && a.StatusOf(field) != *status {
			continue
		}
		out = append(out, a)
	}
	return out
}
