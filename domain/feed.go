package domain

// FeedState is the lifecycle of a message feed controller.
type FeedState int

const (
	FeedIdle FeedState = iota
	FeedHydrating
	FeedLive
	FeedUnsubscribed
)

func (s FeedState) String() string {
	switch s {
	case FeedHydrating:
		return "hydrating"
	case FeedLive:
		return "live"
	case FeedUnsubscribed:
		return "unsubscribed"
	default:
		return "idle"
	}
}
