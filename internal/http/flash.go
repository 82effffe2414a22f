package http

import (
	"encoding/base64"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	flashCookie = "eb_flash"
	flashError  = "error"
	flashInfo   = "info"
)

// setFlash queues a message for the next page render.
func (s *Server) setFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	msgs := readFlashes(r)
	msgs = append(msgs, flash{Kind: kind, Message: message})
	raw, err := msgpack.Marshal(msgs)
	if err != nil {
		log.Error("Failed to encode flash", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns the queued messages and clears the cookie.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []flash {
	msgs := readFlashes(r)
	if len(msgs) > 0 {
		http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	}
	return msgs
}

func readFlashes(r *http.Request) []flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		log.Debug("Dropping undecodable flash cookie", "error", err)
		return nil
	}
	var msgs []flash
	if err := msgpack.Unmarshal(raw, &msgs); err != nil {
		log.Debug("Dropping malformed flash cookie", "error", err)
		return nil
	}
	return msgs
}
