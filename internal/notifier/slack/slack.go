package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
	"github.com/jcaplliure/EntrenadorBasket/internal/notifier"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

const timeZone = "Europe/Madrid"

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) StaffInvited(t *team.Team, staff *team.Staff, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatStaffInvited(t, staff), dryRun)
	return err
}

func (s *Notifier) SessionFinished(t *team.Team, sess *session.Session, top []scoring.Entry, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatSessionFinished(t, sess, top), dryRun)
	return err
}

func (s *Notifier) MatchFinished(m *match.Match, stats *scoring.MatchStats, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatMatchFinished(m, stats), dryRun)
	return err
}

func localTime(t time.Time) string {
	if loc, err := time.LoadLocation(timeZone); err == nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006 15:04")
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return ""
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject("plain_text", text, true, false)
}

// formatStaffInvited announces a new assistant coach invitation.
func (s *Notifier) formatStaffInvited(t *team.Team, staff *team.Staff) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plain("🏀 Nueva invitación de staff")),
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn",
			fmt.Sprintf("*%s* ha sido invitado a *%s* como %s.", staff.Email, t.Name, staff.Role), false, false), nil, nil),
	}
	if t.Category != "" {
		blocks = append(blocks, slack.NewContextBlock("", plain("Categoría: "+t.Category)))
	}
	return slack.NewBlockMessage(blocks...)
}

// formatSessionFinished summarises a training with the head of the team leaderboard.
func (s *Notifier) formatSessionFinished(t *team.Team, sess *session.Session, top []scoring.Entry) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plain(fmt.Sprintf("🏀 Entrenamiento terminado: %s", t.Name))),
		slack.NewSectionBlock(plain(localTime(sess.Date)), nil, nil),
	}

	if len(top) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(plain("Todavía no hay puntos en el ranking."), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	lines := make([]string, len(top))
	for i, e := range top {
		label := fmt.Sprintf("%d.", i+1)
		if md := medal(i + 1); md != "" {
			label += " " + md
		}
		lines[i] = fmt.Sprintf("%s #%d %s: %.0f pts", label, e.Dorsal, e.Name, e.Points)
	}
	blocks = append(blocks, slack.NewSectionBlock(plain("Ranking de entrenamientos:\n"+strings.Join(lines, "\n")), nil, nil))
	return slack.NewBlockMessage(blocks...)
}

// formatMatchFinished reports the final score and the best valued players.
func (s *Notifier) formatMatchFinished(m *match.Match, stats *scoring.MatchStats) slack.Message {
	home, away := m.TeamName, m.Opponent
	us, them := m.ResultUs, m.ResultThem
	if !m.IsHome {
		home, away = away, home
		us, them = them, us
	}

	verdict := "Empate"
	switch {
	case m.ResultUs > m.ResultThem:
		verdict = "Victoria 🏆"
	case m.ResultUs < m.ResultThem:
		verdict = "Derrota"
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(plain("🏀 Partido terminado")),
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn",
			fmt.Sprintf("*%s %d - %d %s*\n%s", home, us, them, away, verdict), false, false), nil, nil),
	}

	if stats != nil && len(stats.Players) > 0 {
		players := append([]scoring.PlayerLine(nil), stats.Players...)
		sort.SliceStable(players, func(i, j int) bool { return players[i].Valuation > players[j].Valuation })
		if len(players) > 3 {
			players = players[:3]
		}
		var fields []*slack.TextBlockObject
		for i, p := range players {
			fields = append(fields, plain(fmt.Sprintf("%s #%d %s\nVal: %.1f | Pts: %d", medal(i+1), p.Dorsal, p.Name, p.Valuation, p.Points)))
		}
		blocks = append(blocks, slack.NewSectionBlock(plain("Mejor valoración:"), fields, nil))
	}

	blocks = append(blocks, slack.NewContextBlock("", plain(localTime(m.Date))))
	return slack.NewBlockMessage(blocks...)
}
