package server

import (
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/poller"
)

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	SubscriberID string `json:"subscriber_id" validate:"required,max=128"`
	Keyword      string `json:"keyword" validate:"required,max=200"`
}

// ActionRequest is the body of POST /actions.
type ActionRequest struct {
	SubscriberID string `json:"subscriber_id" validate:"required,max=128"`
	Action       string `json:"action" validate:"required,oneof=subscribe unsubscribe search-again back"`
	Keyword      string `json:"keyword" validate:"max=200,required_if=Action subscribe,required_if=Action unsubscribe"`
}

// ToAction converts the request to the engine's action type.
func (r *ActionRequest) ToAction() model.Action {
	return model.Action{Name: model.ActionName(r.Action), Keyword: r.Keyword}
}

// SearchResponse reports what a search delivered.
type SearchResponse struct {
	Keyword    string `json:"keyword"`
	Subscribed bool   `json:"subscribed"`
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	FirstNum   int    `json:"first_number,omitempty"`
	LastNum    int    `json:"last_number,omitempty"`
}

func newSearchResponse(keyword string, res *poller.PollResult) SearchResponse {
	return SearchResponse{
		Keyword:    keyword,
		Subscribed: res.Subscribed,
		Fetched:    res.Fetched,
		New:        res.New,
		FirstNum:   res.FirstNum,
		LastNum:    res.LastNum,
	}
}

// SubscriptionsResponse lists a subscriber's keywords.
type SubscriptionsResponse struct {
	SubscriberID string   `json:"subscriber_id"`
	Keywords     []string `json:"keywords"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
