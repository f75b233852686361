package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig controls which cross-origin browser requests the API answers.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to call the API. Empty, or a "*"
	// entry, allows every origin.
	AllowOrigins []string

	// AllowMethods is sent on preflight responses. Empty means the usual
	// REST verbs.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. Empty echoes
	// whatever the preflight asked for.
	AllowHeaders []string

	// AllowCredentials permits cookies and Authorization headers on
	// cross-origin requests. Incompatible with the wildcard origin, so a
	// credentialed wildcard config echoes the caller's origin instead.
	AllowCredentials bool

	// MaxAge is how long, in seconds, browsers may cache a preflight answer.
	MaxAge int
}

// CORS answers preflight requests and stamps the allow headers on actual
// cross-origin responses. Requests without an Origin header pass through
// untouched.
func CORS(cfg CORSConfig) Middleware {
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	wildcard := len(cfg.AllowOrigins) == 0
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		origins[strings.ToLower(o)] = struct{}{}
	}

	methods := strings.Join(cfg.AllowMethods, ", ")
	if methods == "" {
		methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	headers := strings.Join(cfg.AllowHeaders, ", ")

	allowOrigin := func(origin string) string {
		if wildcard {
			if cfg.AllowCredentials {
				return origin
			}
			return "*"
		}
		if _, ok := origins[strings.ToLower(origin)]; ok {
			return origin
		}
		return ""
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			hdr := w.Header()
			hdr.Add("Vary", "Origin")
			allowed := allowOrigin(origin)

			preflight := r.Method == http.MethodOptions &&
				r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				if allowed != "" {
					hdr.Set("Access-Control-Allow-Origin", allowed)
					if cfg.AllowCredentials {
						hdr.Set("Access-Control-Allow-Credentials", "true")
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			hdr.Add("Vary", "Access-Control-Request-Method")
			hdr.Add("Vary", "Access-Control-Request-Headers")

			// Preflights never reach the handlers; disallowed origins get a
			// bare 204 without allow headers.
			if allowed != "" {
				hdr.Set("Access-Control-Allow-Origin", allowed)
				hdr.Set("Access-Control-Allow-Methods", methods)
				switch {
				case headers != "":
					hdr.Set("Access-Control-Allow-Headers", headers)
				case r.Header.Get("Access-Control-Request-Headers") != "":
					hdr.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				}
				if cfg.AllowCredentials {
					hdr.Set("Access-Control-Allow-Credentials", "true")
				}
				if cfg.MaxAge > 0 {
					hdr.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
