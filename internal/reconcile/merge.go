package reconcile

import "IndexSync/internal/model"

// Merge splices batch into existing. Records of existing whose date appears in
// batch are replaced; the result is ordered by date, has one record per date
// and every numeric field rounded to model.PricePlaces.
func Merge(existing, batch []model.Record) []model.Record {
	byDate := make(map[model.Date]model.Record, len(existing)+len(batch))
	for _, r := range existing {
		byDate[r.Date] = r
	}
	for _, r := range batch {
		byDate[r.Date] = r
	}

	out := make([]model.Record, 0, len(byDate))
	for _, r := range byDate {
		out = append(out, r.Rounded())
	}
	sortRecords(out)
	return out
}
