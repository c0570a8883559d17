package models

import "time"

// Rating is user feedback on a result.
type Rating struct {
	ID              string     `json:"id"`
	PositiveRating  bool       `json:"positive_rating"`
	Result          *Ref       `json:"result,omitempty"`
	User            *User      `json:"user,omitempty"`
	Project         *Project   `json:"project,omitempty"`
	CreatedDatetime Timestamp  `json:"created_datetime"`
	UpdatedDatetime *Timestamp `json:"updated_datetime,omitempty"`
}

// Recency is the time used to order ratings: the update time when set,
// otherwise the creation time.
func (r Rating) Recency() time.Time {
	if r.UpdatedDatetime != nil && !r.UpdatedDatetime.IsZero() {
		return r.UpdatedDatetime.Time
	}
	return r.CreatedDatetime.Time
}

// LatestRating returns the most recently updated rating.
func LatestRating(ratings []Rating) (Rating, bool) {
	if len(ratings) == 0 {
		return Rating{}, false
	}
	latest := ratings[0]
	for _, r := range ratings[1:] {
		if r.Recency().After(latest.Recency()) {
			latest = r
		}
	}
	return latest, true
}
