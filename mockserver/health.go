package mockserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/netclient/version"
)

const healthPath = "/__health"

// RouteStatus reports whether a route can currently be served.
type RouteStatus struct {
	Route   string `json:"route"`
	Fixture string `json:"fixture,omitempty"`
	Ready   bool   `json:"ready"`
}

// health reports "healthy" when every fixture-backed route resolves and
// "degraded" otherwise.
func (s *Server) health(c *gin.Context) {
	status := "healthy"
	table := s.Routes()
	routes := make([]RouteStatus, 0, len(table))
	for _, r := range table {
		rs := RouteStatus{Route: r.String(), Fixture: r.Fixture, Ready: true}
		if r.Fixture != "" {
			_, rs.Ready = s.fixtures.Load(r.Fixture)
		}
		if !rs.Ready {
			status = "degraded"
		}
		routes = append(routes, rs)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"service":   "netclient-mock",
		"version":   version.Get().Short(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"routes":    routes,
	})
}
