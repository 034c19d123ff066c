package matching

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

// NotificationTitle is the title of every match notification.
const NotificationTitle = "Potential Match Found!"

// Dispatcher writes one notification per report of a new match. Delivery is best effort.
type Dispatcher struct {
	notifications store.Notifications
	log           zerolog.Logger
}

func NewDispatcher(n store.Notifications, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{notifications: n, log: log}
}

// Dispatch notifies the owner of each report and returns how many notifications were written.
func (d *Dispatcher) Dispatch(ctx context.Context, match *model.MatchRecord, reports ...*model.Report) int {
	sent := 0
	for _, r := range reports {
		_, err := d.notifications.Create(ctx, &model.Notification{
			RecipientID: r.OwnerID,
			ReportID:    r.ReportID,
			MatchID:     match.MatchID,
			Title:       NotificationTitle,
			Message:     NotificationMessage(r.Title, match.Confidence),
		})
		if err != nil {
			d.log.Error().Stack().Err(err).
				Str("report_id", r.ReportID).
				Str("match_id", match.MatchID).
				Msg("notification failed")
			continue
		}
		sent++
	}
	return sent
}

// NotificationMessage renders the body shown to a report owner.
func NotificationMessage(title string, confidence int) string {
	return fmt.Sprintf("Your item \"%s\" has a potential match with %d%% confidence.", title, confidence)
}
