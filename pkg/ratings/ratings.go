// Package ratings derives the likes count and average rating of books from
// their user relations. Nothing here touches the database; callers load the
// relations (in one query for any number of books) and hand them over.
package ratings

import "github.com/bookstore-app/store/pkg/models"

// Aggregate is the derived, non-persisted summary of a book's relations.
type Aggregate struct {
	LikesCount int
	// Rating is nil when no relation carries a rate.
	Rating *models.Rating
}

// Compute aggregates the relations of a single book.
func Compute(relations []*models.UserBookRelation) Aggregate {
	var acc accumulator
	for _, r := range relations {
		acc.add(r)
	}
	return acc.result()
}

// ComputeByBook groups relations by book in a single pass and aggregates each
// group. Books without relations are absent from the map; use Lookup to get
// their zero aggregate.
func ComputeByBook(relations []*models.UserBookRelation) map[int]Aggregate {
	accs := make(map[int]*accumulator)
	for _, r := range relations {
		acc, ok := accs[r.BookID]
		if !ok {
			acc = &accumulator{}
			accs[r.BookID] = acc
		}
		acc.add(r)
	}

	out := make(map[int]Aggregate, len(accs))
	for bookID, acc := range accs {
		out[bookID] = acc.result()
	}
	return out
}

// Lookup returns the aggregate for bookID, or the empty aggregate.
func Lookup(aggregates map[int]Aggregate, bookID int) Aggregate {
	return aggregates[bookID]
}

type accumulator struct {
	likes int
	rated int64
	sum   int64
}

func (a *accumulator) add(r *models.UserBookRelation) {
	if r.Like {
		a.likes++
	}
	if r.Rate != nil {
		a.rated++
		a.sum += int64(*r.Rate)
	}
}

func (a *accumulator) result() Aggregate {
	agg := Aggregate{LikesCount: a.likes}
	if a.rated > 0 {
		rating := meanHundredths(a.sum, a.rated)
		agg.Rating = &rating
	}
	return agg
}

// meanHundredths returns sum/count in hundredths, rounded half up.
func meanHundredths(sum, count int64) models.Rating {
	// round(sum*100/count) == floor((sum*200 + count) / (2*count)) for
	// non-negative sums.
	return models.Rating((sum*200 + count) / (2 * count))
}
