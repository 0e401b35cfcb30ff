package feed

import "blog/internal/models"

// Page is a 1-indexed slice of an ordered feed.
type Page struct {
	Items   []models.Post
	Number  int
	Pages   int
	PerPage int
	Count   int
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Pages }
func (p Page) Prev() int     { return p.Number - 1 }
func (p Page) Next() int     { return p.Number + 1 }

// PageCount reports how many pages count items occupy at per items a page.
// An empty feed still presents one (empty) page.
func PageCount(count, per int) int {
	if count == 0 {
		return 1
	}
	return (count + per - 1) / per
}

// Paginate slices items into pages of per and returns page number. Numbers
// outside [1, Pages] clamp to the last page; callers translate a missing or
// malformed page parameter into 1 before getting here.
func Paginate(items []models.Post, number, per int) Page {
	pages := PageCount(len(items), per)
	if number < 1 || number > pages {
		number = pages
	}
	lo := (number - 1) * per
	hi := lo + per
	if lo > len(items) {
		lo = len(items)
	}
	if hi > len(items) {
		hi = len(items)
	}
	return Page{
		Items:   items[lo:hi],
		Number:  number,
		Pages:   pages,
		PerPage: per,
		Count:   len(items),
	}
}
