package realtime

// FeedElementID is the id of the list element that post cards are
// prepended to.
const FeedElementID = "feed"

// PostElementID returns the DOM id of a post's card.
func PostElementID(postID string) string {
	return "post-" + postID
}

// displayDate trims an RFC 3339 timestamp to its date part.
func displayDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
