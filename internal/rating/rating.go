// Package rating summarizes the star ratings of a book's reviews.
package rating

import "github.com/emzola/bookshelf/data"

// Aggregate returns the rating summary of reviews. Average is the unrounded mean of
// the ratings and is 0 when there are no reviews. Ratings outside the five-star scale
// count toward the mean but not toward any star bucket.
func Aggregate(reviews []*data.Review) data.Rating {
	var r data.Rating
	var sum int64
	for _, review := range reviews {
		if review == nil {
			continue
		}
		sum += int64(review.Rating)
		r.Total++
		switch review.Rating {
		case 5:
			r.FiveStars++
		case 4:
			r.FourStars++
		case 3:
			r.ThreeStars++
		case 2:
			r.TwoStars++
		case 1:
			r.OneStar++
		}
	}
	if r.Total > 0 {
		r.Average = float64(sum) / float64(r.Total)
	}
	return r
}
