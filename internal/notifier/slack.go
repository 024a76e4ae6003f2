package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
)

var _ model.Deliverer = (*SlackNotifier)(nil)

// SlackNotifier posts deliveries to a Slack channel via Incoming Webhooks.
// Each batch becomes one Block Kit message; notices carry their actions as
// buttons whose action_id is the action name and value is the keyword.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a deliverer that posts to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (s *SlackNotifier) SendBatch(ctx context.Context, subscriber string, records []model.RenderedRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.post(ctx, buildBatchPayload(subscriber, records)); err != nil {
		return fmt.Errorf("slack batch for %s: %w", subscriber, err)
	}
	s.logger.Debug("slack batch sent", "subscriber", subscriber, "records", len(records))
	return nil
}

func (s *SlackNotifier) SendNotice(ctx context.Context, subscriber string, notice model.Notice) error {
	if err := s.post(ctx, buildNoticePayload(subscriber, notice)); err != nil {
		return fmt.Errorf("slack notice for %s: %w", subscriber, err)
	}
	return nil
}

// post sends the payload, retrying once after the Retry-After delay on 429.
func (s *SlackNotifier) post(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.do(ctx, body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		t := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		status, _, err = s.do(ctx, body)
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		return nil
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	return nil
}

func (s *SlackNotifier) do(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string         `json:"type"`
	Text      *slackText     `json:"text,omitempty"`
	Fields    []slackText    `json:"fields,omitempty"`
	Elements  []any          `json:"elements,omitempty"` // slackElement or slackText (context)
	Accessory *slackElement  `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type     string     `json:"type"`
	Text     *slackText `json:"text,omitempty"`
	URL      string     `json:"url,omitempty"`
	Style    string     `json:"style,omitempty"`
	ActionID string     `json:"action_id,omitempty"`
	Value    string     `json:"value,omitempty"`
}

func markerEmoji(m model.Marker) string {
	if m == model.MarkerA {
		return "🅰️"
	}
	return "🅱️"
}

func buildBatchPayload(subscriber string, records []model.RenderedRecord) slackPayload {
	first, last := records[0].Number, records[len(records)-1].Number
	blocks := []slackBlock{
		{
			Type:     "context",
			Elements: []any{slackText{Type: "mrkdwn", Text: "for " + subscriber}},
		},
	}
	for _, r := range records {
		j := r.Job
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("%s *%d. %s*\n%s · %s", markerEmoji(r.Marker), r.Number, j.Title, j.Company, j.Location),
			},
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Salary:*\n" + j.Salary},
				{Type: "mrkdwn", Text: "*Published:*\n" + j.Published},
			},
			Accessory: &slackElement{
				Type:  "button",
				Text:  &slackText{Type: "plain_text", Text: "Open"},
				URL:   j.OfferLink,
				Style: "primary",
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{
		Text:   fmt.Sprintf("Listings %d to %d", first, last),
		Blocks: blocks,
	}
}

func buildNoticePayload(subscriber string, notice model.Notice) slackPayload {
	blocks := []slackBlock{
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: notice.Text},
		},
	}
	if len(notice.Actions) > 0 {
		buttons := make([]any, 0, len(notice.Actions))
		for _, a := range notice.Actions {
			b := slackElement{
				Type:     "button",
				Text:     &slackText{Type: "plain_text", Text: actionTitle(a)},
				ActionID: string(a.Name),
				Value:    a.Keyword,
			}
			if a.Name == model.ActionSubscribe {
				b.Style = "primary"
			}
			if a.Name == model.ActionUnsubscribe {
				b.Style = "danger"
			}
			buttons = append(buttons, b)
		}
		blocks = append(blocks, slackBlock{Type: "actions", Elements: buttons})
	}
	blocks = append(blocks, slackBlock{
		Type:     "context",
		Elements: []any{slackText{Type: "mrkdwn", Text: "for " + subscriber}},
	})
	return slackPayload{Text: notice.Text, Blocks: blocks}
}

// actionTitle is the human label of a button.
func actionTitle(a model.Action) string {
	switch a.Name {
	case model.ActionSubscribe:
		return fmt.Sprintf("Subscribe to %q", a.Keyword)
	case model.ActionUnsubscribe:
		return fmt.Sprintf("Unsubscribe from %q", a.Keyword)
	case model.ActionSearchAgain:
		return "Search"
	case model.ActionBack:
		return "Back"
	default:
		return capitalize(string(a.Name))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SendTestMessage sends a sample listing and notice to verify the integration works.
func SendTestMessage(ctx context.Context, d model.Deliverer, subscriber string) error {
	rec := model.RenderedRecord{
		Number: 1,
		Marker: model.MarkerFor(1),
		Job: model.JobRecord{
			Title:     "Test Notification: Integration Verified",
			Company:   "jobfeed",
			Location:  "Warszawa",
			Salary:    model.NotSpecified,
			Published: time.Now().Format("2 Jan 2006"),
			OfferLink: "https://www.pracuj.pl/",
			Source:    "test",
		},
	}
	if err := d.SendBatch(ctx, subscriber, []model.RenderedRecord{rec}); err != nil {
		return err
	}
	return d.SendNotice(ctx, subscriber, model.Notice{
		Kind:    model.NoticeMenu,
		Text:    "jobfeed test notice",
		Actions: []model.Action{{Name: model.ActionSearchAgain}},
	})
}
