// Package web serves a small read-only companion page over the journey
// manager: an HTML history view plus a JSON endpoint for the same data.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"pctrack/pkg/api"
	"pctrack/pkg/journey"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server exposes journey history on a local port.
type Server struct {
	manager *journey.Manager
	engine  *gin.Engine
}

// NewServer builds the router. The manager is refreshed on each page load so
// the page tracks the cache even while the API is unreachable.
func NewServer(manager *journey.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{manager: manager, engine: engine}
	engine.GET("/", s.index)
	engine.GET("/api/journeys", s.journeys)
	engine.GET("/api/status", s.status)
	return s
}

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type journeyView struct {
	Label         string
	Date          string
	StartPostcode string
	EndPostcode   string
	Duration      string
	Distance      string
	Active        bool
}

func viewOf(j api.Journey) journeyView {
	v := journeyView{
		Label:         j.LabelText(),
		StartPostcode: j.StartPostcode,
		Duration:      j.Duration(),
		Active:        j.IsActive,
	}
	if start, ok := j.StartedAt(); ok {
		v.Date = start.Format("Mon 2 Jan 2006 15:04")
	}
	if j.EndPostcode != nil {
		v.EndPostcode = *j.EndPostcode
	}
	if j.DistanceMiles != nil {
		v.Distance = j.FormattedDistance()
	}
	return v
}

func (s *Server) index(c *gin.Context) {
	_ = s.manager.LoadJourneys(c.Request.Context())
	snap := s.manager.Snapshot()

	views := make([]journeyView, 0, len(snap.Journeys))
	for _, j := range snap.Journeys {
		views = append(views, viewOf(j))
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Journeys":   views,
		"IsTracking": snap.IsTracking,
		"Error":      snap.ErrorMessage,
	})
}

func (s *Server) journeys(c *gin.Context) {
	_ = s.manager.LoadJourneys(c.Request.Context())
	snap := s.manager.Snapshot()
	c.JSON(http.StatusOK, gin.H{"journeys": snap.Journeys})
}

func (s *Server) status(c *gin.Context) {
	_ = s.manager.CheckActiveJourney(c.Request.Context())
	snap := s.manager.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"is_tracking":     snap.IsTracking,
		"current_journey": snap.CurrentJourney,
	})
}
