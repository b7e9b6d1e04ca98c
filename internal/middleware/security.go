// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// hstsValue is sent when HSTS is enabled: two years, subdomains included.
const hstsValue = "max-age=63072000; includeSubDomains"

// SecurityOptions shape the security headers for the site's content.
type SecurityOptions struct {
	// ImageOrigins may serve post banners and inline images, e.g.
	// "https://images.prismic.io". The site's own origin is always allowed.
	ImageOrigins []string
	// HSTS adds Strict-Transport-Security. Enable it only behind HTTPS.
	HSTS bool
}

// ContentSecurityPolicy builds the policy for the site's pages: images from
// the configured origins, oEmbed iframes from any https origin, and the
// inline redirect script of the preview entry page.
func (o SecurityOptions) ContentSecurityPolicy() string {
	img := append([]string{"'self'", "data:"}, o.ImageOrigins...)
	directives := []string{
		"default-src 'self'",
		"img-src " + strings.Join(img, " "),
		"frame-src https:",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'self'",
	}
	return strings.Join(directives, "; ")
}

// SecureHeaders adds security-related HTTP headers to every response.
func SecureHeaders(opts SecurityOptions) func(http.Handler) http.Handler {
	csp := opts.ContentSecurityPolicy()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
			h.Set("Content-Security-Policy", csp)
			if opts.HSTS {
				h.Set("Strict-Transport-Security", hstsValue)
			}

			next.ServeHTTP(w, r)
		})
	}
}
