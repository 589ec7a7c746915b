// SPDX-License-Identifier: EPL-2.0

package server

import (
	"net/http"
	"net/http/httputil"
)

// videoProxy forwards /video_feed to the detector's camera stream.
func (s *Server) videoProxy() http.Handler {
	if s.stream == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			s.writeError(w, http.StatusNotFound, "no detector configured")
		})
	}

	target := s.stream

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = target.Path
			pr.Out.URL.RawPath = target.RawPath
			pr.Out.URL.RawQuery = target.RawQuery
		},
		// MJPEG is an endless multipart response.
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, _ *http.Request, err error) {
			s.log.Warn().Err(err).Str("target", target.String()).Msg("camera stream")
			s.writeError(w, http.StatusBadGateway, "camera stream unavailable")
		},
	}
}
