package review

import "github.com/insightmap/insightmap/internal/model"

// Stats are the aggregate counts the review UI groups by. They are computed
// from the batch on demand, never stored.
type Stats struct {
	Total int

	// By the top suggestion's confidence band
	High   int
	Medium int
	Low    int

	// By how the insight itself was generated
	AI      int
	Keyword int

	// By the method of the top placement suggestion (insights without
	// suggestions are counted under neither)
	AIPlaced      int
	KeywordPlaced int
}

// Stats computes aggregate counts over the current batch
func (s *Selection) Stats() Stats {
	var st Stats
	st.Total = len(s.batch)

	for i := range s.batch {
		ins := &s.batch[i]

		switch ins.Band() {
		case model.BandHigh:
			st.High++
		case model.BandMedium:
			st.Medium++
		default:
			st.Low++
		}

		switch ins.GenerationMethod {
		case model.MethodAI:
			st.AI++
		case model.MethodKeyword:
			st.Keyword++
		}

		if top := ins.TopPlacement(); top != nil {
			switch top.Method {
			case model.MethodAI:
				st.AIPlaced++
			case model.MethodKeyword:
				st.KeywordPlaced++
			}
		}
	}
	return st
}
