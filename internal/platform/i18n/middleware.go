package i18n

import (
	"net/http"

	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

// CookieName is the cookie and query parameter that pins the language.
const CookieName = "hl"

// Middleware stores the negotiated language on the request context. An `hl`
// query parameter wins and is persisted as a cookie, then the `hl` cookie,
// then Accept-Language.
func Middleware(resolver *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := resolver.Normalize(r.URL.Query().Get(CookieName)); q != "" {
				lang = q
				http.SetCookie(w, &http.Cookie{Name: CookieName, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if c, err := r.Cookie(CookieName); err == nil {
				lang = resolver.Normalize(c.Value)
			}
			if lang == "" {
				lang = resolver.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), lang)))
		})
	}
}
