package rank

import "jobmonitor/internal/domain"

type Scorer interface {
	Score(l domain.Listing) domain.ScoredListing
}
