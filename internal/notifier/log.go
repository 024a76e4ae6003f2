package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobfeed/internal/model"
)

var _ model.Deliverer = (*LogNotifier)(nil)

// LogNotifier writes deliveries to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a deliverer that logs each record and notice via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendBatch logs one line per record. Logging does not fail.
func (n *LogNotifier) SendBatch(_ context.Context, subscriber string, records []model.RenderedRecord) error {
	for _, r := range records {
		n.logger.Info("listing",
			"subscriber", subscriber,
			"number", r.Number,
			"marker", string(r.Marker),
			"title", r.Job.Title,
			"company", r.Job.Company,
			"location", r.Job.Location,
			"salary", r.Job.Salary,
			"published", r.Job.Published,
			"url", r.Job.OfferLink,
		)
	}
	return nil
}

func (n *LogNotifier) SendNotice(_ context.Context, subscriber string, notice model.Notice) error {
	args := []any{"subscriber", subscriber, "kind", string(notice.Kind), "text", notice.Text}
	if len(notice.Actions) > 0 {
		args = append(args, "actions", actionLabels(notice.Actions))
	}
	n.logger.Info("notice", args...)
	return nil
}

// actionLabels renders actions as "name" or "name:keyword".
func actionLabels(actions []model.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a.Name)
		if a.Keyword != "" {
			out[i] += ":" + a.Keyword
		}
	}
	return out
}
