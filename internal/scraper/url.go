package scraper

import (
	"net/url"
	"strconv"
)

// PageURL constructs the request URL for one page of the paginated survey
// listing. All parameters other than the page index are held fixed for
// the duration of a crawl.
//
// Pure function: no side effects and no failure modes. A malformed base
// URL surfaces later as a fetch error, which the orchestrator already
// tolerates, so there is nothing useful to return here besides the string.
func PageURL(base string, perPage int, pageToken, sortOrder string, page int) string {
	params := url.Values{}
	params.Set("pp", strconv.Itoa(perPage))
	params.Set("p", pageToken)
	params.Set("page", strconv.Itoa(page))
	params.Set("sort", sortOrder)
	return base + "?" + params.Encode()
}
