package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/charmbracelet/log"
	"github.com/jcaplliure/EntrenadorBasket/internal/ranking"
	"github.com/jcaplliure/EntrenadorBasket/internal/siteconfig"
)

const pageHead = `<!DOCTYPE html><html lang="es"><head><meta charset="utf-8">` +
	`<meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head><body><main>`

const pageFoot = `</main></body></html>`

// renderPage writes an HTML component. Errors after the header is sent can only be logged.
func renderPage(ctx context.Context, w http.ResponseWriter, page templ.Component, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(ctx, w); err != nil {
		log.Error("Failed to render page", "page", name, "error", err)
	}
}

func htmlPage(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, fmt.Sprintf(pageHead, templ.EscapeString(title))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, body); err != nil {
			return err
		}
		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

func loginPage(flashes []flash, googleEnabled bool) templ.Component {
	return htmlPage("EntrenadorBasket · Acceso", buildLoginHTML(flashes, googleEnabled))
}

func buildLoginHTML(flashes []flash, googleEnabled bool) string {
	var b strings.Builder
	b.WriteString(`<h1>EntrenadorBasket</h1>`)
	for _, f := range flashes {
		fmt.Fprintf(&b, `<p class="flash flash-%s">%s</p>`, templ.EscapeString(f.Kind), templ.EscapeString(f.Message))
	}

	b.WriteString(`<section><h2>Entrar</h2><form method="post" action="/login">`)
	b.WriteString(`<input type="email" name="email" placeholder="Email" required>`)
	b.WriteString(`<input type="password" name="password" placeholder="Contraseña" required>`)
	b.WriteString(`<button type="submit">Entrar</button></form>`)
	if googleEnabled {
		b.WriteString(`<a href="/login/google">Entrar con Google</a>`)
	}
	b.WriteString(`</section>`)

	b.WriteString(`<section><h2>Registro (solo con invitación)</h2><form method="post" action="/register">`)
	b.WriteString(`<input type="text" name="name" placeholder="Nombre" required>`)
	b.WriteString(`<input type="email" name="email" placeholder="Email" required>`)
	b.WriteString(`<input type="password" name="password" placeholder="Contraseña" minlength="6" required>`)
	b.WriteString(`<button type="submit">Crear cuenta</button></form></section>`)
	return b.String()
}

func publicRankingPage(board *ranking.PublicBoard) templ.Component {
	return htmlPage(board.Team.Name+" · Ranking", buildPublicRankingHTML(board))
}

func buildPublicRankingHTML(board *ranking.PublicBoard) string {
	var b strings.Builder
	t := board.Team
	name := templ.EscapeString(t.Name)

	b.WriteString(`<header>`)
	if t.LogoFile != "" {
		fmt.Fprintf(&b, `<img src="%s" alt="%s" width="96">`, templ.EscapeString(siteconfig.URL(t.LogoFile)), name)
	}
	fmt.Fprintf(&b, `<h1>%s</h1>`, name)
	if t.Category != "" {
		fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(t.Category))
	}
	b.WriteString(`</header><ol>`)

	if len(board.Entries) == 0 {
		b.WriteString(`<li>Todavía no hay puntos registrados.</li>`)
	}
	for _, e := range board.Entries {
		b.WriteString(`<li>`)
		if e.PhotoFile != "" {
			fmt.Fprintf(&b, `<img src="%s" alt="" width="40">`, templ.EscapeString(siteconfig.URL(e.PhotoFile)))
		}
		fmt.Fprintf(&b, `<span class="dorsal">#%d</span><span class="name">%s</span><span class="points">%.0f pts</span>`,
			e.Dorsal, templ.EscapeString(e.Name), e.Points)
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ol>`)

	if board.Hidden > 0 {
		fmt.Fprintf(&b, `<p>Y %d jugadores más.</p>`, board.Hidden)
	}
	return b.String()
}
