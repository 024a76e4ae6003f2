package poller

import (
	"fmt"

	"github.com/amishk599/jobfeed/internal/model"
)

func back() model.Action { return model.Action{Name: model.ActionBack} }

func searchAgain(keyword string) model.Action {
	return model.Action{Name: model.ActionSearchAgain, Keyword: keyword}
}

func unsubscribe(keyword string) model.Action {
	return model.Action{Name: model.ActionUnsubscribe, Keyword: keyword}
}

func subscribe(keyword string) model.Action {
	return model.Action{Name: model.ActionSubscribe, Keyword: keyword}
}

func noListingsNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeNoListings,
		Keyword: kw,
		Text:    fmt.Sprintf("No listings found for %q", kw),
		Actions: []model.Action{back()},
	}
}

func noNewListingsNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeNoNewListings,
		Keyword: kw,
		Text:    fmt.Sprintf("No new listings for %q", kw),
		Actions: []model.Action{back()},
	}
}

func offerSubscriptionNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeOfferSubscription,
		Keyword: kw,
		Text:    fmt.Sprintf("Subscribe to updates for %q?", kw),
		Actions: []model.Action{subscribe(kw), back()},
	}
}

func updatesNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeUpdates,
		Keyword: kw,
		Text:    fmt.Sprintf("Updates for %q", kw),
		Actions: []model.Action{unsubscribe(kw), searchAgain(""), back()},
	}
}

func newListingsNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeNewListings,
		Keyword: kw,
		Text:    fmt.Sprintf("New listings for %q", kw),
		Actions: []model.Action{unsubscribe(kw), searchAgain(""), back()},
	}
}

func subscribedNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeSubscribed,
		Keyword: kw,
		Text:    fmt.Sprintf("Subscribed to %q", kw),
		Actions: []model.Action{back()},
	}
}

func alreadySubscribedNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeAlreadySubscribed,
		Keyword: kw,
		Text:    fmt.Sprintf("Already subscribed to %q", kw),
		Actions: []model.Action{back()},
	}
}

func searchExpiredNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeSearchExpired,
		Keyword: kw,
		Text:    fmt.Sprintf("Search results for %q have expired, search again", kw),
		Actions: []model.Action{searchAgain(kw), back()},
	}
}

func unsubscribedNotice(kw string) model.Notice {
	return model.Notice{
		Kind:    model.NoticeUnsubscribed,
		Keyword: kw,
		Text:    fmt.Sprintf("Unsubscribed from %q", kw),
		Actions: []model.Action{back()},
	}
}

func subscriptionsNotice(keywords []string) model.Notice {
	if len(keywords) == 0 {
		return model.Notice{
			Kind:    model.NoticeNoSubscriptions,
			Text:    "You have no subscriptions",
			Actions: []model.Action{back()},
		}
	}
	actions := make([]model.Action, 0, len(keywords)+1)
	for _, kw := range keywords {
		actions = append(actions, unsubscribe(kw))
	}
	actions = append(actions, back())
	return model.Notice{
		Kind:    model.NoticeSubscriptions,
		Text:    "Your subscriptions:",
		Actions: actions,
	}
}

func promptNotice() model.Notice {
	return model.Notice{
		Kind: model.NoticePrompt,
		Text: "Send a job title to search for",
	}
}

func menuNotice() model.Notice {
	return model.Notice{
		Kind:    model.NoticeMenu,
		Text:    "Choose an action",
		Actions: []model.Action{searchAgain("")},
	}
}
