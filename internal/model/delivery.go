package model

import "context"

// Marker is the alternating visual tag attached to each delivered record.
type Marker string

const (
	MarkerA Marker = "A" // even display numbers
	MarkerB Marker = "B" // odd display numbers
)

// MarkerFor returns the marker for a display number: B on 1, A on 2, B on 3, ...
func MarkerFor(number int) Marker {
	if number%2 == 0 {
		return MarkerA
	}
	return MarkerB
}

// RenderedRecord is a JobRecord numbered and marked for delivery.
type RenderedRecord struct {
	Number int
	Marker Marker
	Job    JobRecord
}

// ActionName identifies an interactive control offered alongside a notice.
type ActionName string

const (
	ActionSubscribe   ActionName = "subscribe"
	ActionUnsubscribe ActionName = "unsubscribe"
	ActionSearchAgain ActionName = "search-again"
	ActionBack        ActionName = "back"
)

// Action is a control the transport renders; Keyword is empty for actions
// that are not bound to a search term.
type Action struct {
	Name    ActionName `json:"name"`
	Keyword string     `json:"keyword,omitempty"`
}

// NoticeKind classifies a plain-text notice.
type NoticeKind string

const (
	NoticeNoListings        NoticeKind = "no_listings"
	NoticeNoNewListings     NoticeKind = "no_new_listings"
	NoticeOfferSubscription NoticeKind = "offer_subscription"
	NoticeUpdates           NoticeKind = "updates"
	NoticeNewListings       NoticeKind = "new_listings"
	NoticeSubscribed        NoticeKind = "subscribed"
	NoticeAlreadySubscribed NoticeKind = "already_subscribed"
	NoticeSearchExpired     NoticeKind = "search_expired"
	NoticeUnsubscribed      NoticeKind = "unsubscribed"
	NoticeSubscriptions     NoticeKind = "subscriptions"
	NoticeNoSubscriptions   NoticeKind = "no_subscriptions"
	NoticePrompt            NoticeKind = "prompt"
	NoticeMenu              NoticeKind = "menu"
)

// Notice is a plain-text message plus the actions offered with it.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Keyword string     `json:"keyword,omitempty"`
	Text    string     `json:"text"`
	Actions []Action   `json:"actions,omitempty"`
}

// Deliverer is the outbound messaging transport.
type Deliverer interface {
	SendBatch(ctx context.Context, subscriberID string, records []RenderedRecord) error
	SendNotice(ctx context.Context, subscriberID string, notice Notice) error
}
