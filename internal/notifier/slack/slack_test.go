package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jcaplliure/EntrenadorBasket/internal/match"
	"github.com/jcaplliure/EntrenadorBasket/internal/metrics"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/session"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hola", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	_, _, err := notifier.sendMessage(slackapi.NewBlockMessage(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestStaffInvited_CallsSender(t *testing.T) {
	calls := 0
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			calls++
			return "C123", "ts123", nil
		},
	}
	notifier := NewNotifierWithAPI(api, "C123", metrics.NewMock())

	err := notifier.StaffInvited(&team.Team{Name: "Cadete A"}, &team.Staff{Email: "ayudante@example.com", Role: "assistant"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestFormatStaffInvited(t *testing.T) {
	client := &Notifier{channelID: "C123"}
	msg := client.formatStaffInvited(&team.Team{Name: "Cadete A", Category: "Cadete"}, &team.Staff{Email: "ayudante@example.com", Role: "assistant"})
	require.Len(t, msg.Blocks.BlockSet, 3)

	section, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "ayudante@example.com")
	assert.Contains(t, section.Text.Text, "Cadete A")
}

func TestFormatSessionFinished(t *testing.T) {
	client := &Notifier{channelID: "C123"}
	sess := &session.Session{Date: time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)}

	t.Run("empty leaderboard", func(t *testing.T) {
		msg := client.formatSessionFinished(&team.Team{Name: "Infantil"}, sess, nil)
		require.Len(t, msg.Blocks.BlockSet, 3)
		section := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		assert.Equal(t, "Todavía no hay puntos en el ranking.", section.Text.Text)
	})

	t.Run("with players", func(t *testing.T) {
		top := []scoring.Entry{{Name: "Ana", Dorsal: 4, Points: 30}, {Name: "Bea", Dorsal: 5, Points: 28}}
		msg := client.formatSessionFinished(&team.Team{Name: "Infantil"}, sess, top)
		section := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
		assert.Contains(t, section.Text.Text, "1. 🥇 #4 Ana: 30 pts")
		assert.Contains(t, section.Text.Text, "2. 🥈 #5 Bea: 28 pts")
	})
}

func TestFormatMatchFinished(t *testing.T) {
	client := &Notifier{channelID: "C123"}
	m := &match.Match{TeamName: "Cadete A", Opponent: "Rival", IsHome: false, ResultUs: 50, ResultThem: 42, Date: time.Now()}
	stats := &scoring.MatchStats{Players: []scoring.PlayerLine{
		{Name: "Ana", Dorsal: 4, Valuation: 3},
		{Name: "Bea", Dorsal: 5, Valuation: 12, Points: 10},
		{Name: "Carla", Dorsal: 6, Valuation: 7},
		{Name: "Dani", Dorsal: 7, Valuation: 1},
	}}

	msg := client.formatMatchFinished(m, stats)
	require.Len(t, msg.Blocks.BlockSet, 4)

	score := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	assert.Contains(t, score.Text.Text, "Rival 42 - 50 Cadete A")
	assert.Contains(t, score.Text.Text, "Victoria")

	best := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.Len(t, best.Fields, 3)
	assert.Contains(t, best.Fields[0].Text, "Bea")
	assert.Contains(t, best.Fields[2].Text, "Ana")
}
