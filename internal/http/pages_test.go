package http

import (
	"bytes"
	"context"
	"testing"

	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
	"github.com/jcaplliure/EntrenadorBasket/internal/scoring"
	"github.com/jcaplliure/EntrenadorBasket/internal/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginPageEscapesFlashes(t *testing.T) {
	var buf bytes.Buffer
	err := loginPage([]flash{{Kind: flashError, Message: `<b>mal</b>`}}, true).Render(context.Background(), &buf)
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "&lt;b&gt;mal&lt;/b&gt;")
	assert.NotContains(t, body, "<b>mal</b>")
	assert.Contains(t, body, `href="/login/google"`)
	assert.Contains(t, body, "<title>EntrenadorBasket · Acceso</title>")

	buf.Reset()
	require.NoError(t, loginPage(nil, false).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "/login/google")
}

func TestPublicRankingPage(t *testing.T) {
	board := &ranking.PublicBoard{
		Team: team.Team{Name: `Cadete "A"`, Category: "Cadete", LogoFile: "team_logo.jpg"},
		Entries: []scoring.Entry{
			{Name: "Dani", Dorsal: 7, Points: 15, PhotoFile: "player_dani.jpg"},
		},
		Hidden: 2,
	}
	var buf bytes.Buffer
	require.NoError(t, publicRankingPage(board).Render(context.Background(), &buf))

	body := buf.String()
	assert.Contains(t, body, "Cadete &#34;A&#34;")
	assert.Contains(t, body, `src="/static/uploads/team_logo.jpg"`)
	assert.Contains(t, body, `<span class="name">Dani</span>`)
	assert.Contains(t, body, "15 pts")
	assert.Contains(t, body, "Y 2 jugadores más.")
	assert.NotContains(t, body, "Todavía no hay puntos registrados.")

	buf.Reset()
	require.NoError(t, publicRankingPage(&ranking.PublicBoard{Team: team.Team{Name: "Infantil"}}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Todavía no hay puntos registrados.")
}
