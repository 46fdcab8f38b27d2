package middleware

import (
	"net/http"
	"strings"
)

// QueryCredential removes the given query parameter from every request URL so
// request logging never sees it. Under pathPrefix the value is moved into the
// Authorization header unless one is already set.
func QueryCredential(pathPrefix, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if !q.Has(param) {
				next.ServeHTTP(w, r)
				return
			}

			credential := q.Get(param)
			q.Del(param)

			r = r.Clone(r.Context())
			if strings.HasPrefix(r.URL.Path, pathPrefix) && r.Header.Get("Authorization") == "" && credential != "" {
				if !strings.HasPrefix(credential, "Bearer ") {
					credential = "Bearer " + credential
				}
				r.Header.Set("Authorization", credential)
			}
			r.URL.RawQuery = q.Encode()
			r.RequestURI = r.URL.RequestURI()

			next.ServeHTTP(w, r)
		})
	}
}
