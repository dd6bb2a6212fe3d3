package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/events"
	"github.com/oriolus/dwell/internal/handler"
	"github.com/oriolus/dwell/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Places    *handler.PlaceHandler
	Locations *handler.LocationHandler
	Discovery *handler.DiscoveryHandler
	Routines  *handler.RoutineHandler
	Tags      *handler.TagHandler
	Triggers  *handler.TriggerHandler
	Lists     *handler.ListHandler
	Jobs      *handler.JobHandler
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(h Handlers, hub *events.Hub, defaultUser string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Identity(defaultUser))
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(300, time.Minute))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "dwell",
			"time":    time.Now().Unix(),
		})
	})

	r.GET("/ws/events", hub.ServeWS)

	api := r.Group("/api")
	{
		// Fix stream
		locations := api.Group("/locations")
		{
			locations.POST("", h.Locations.IngestLocation)
			locations.GET("/recent", h.Locations.GetRecent)
			locations.GET("/history", h.Locations.GetHistory)
			locations.GET("/summary", h.Locations.GetSummary)
			locations.POST("/cleanup", h.Locations.Cleanup)
		}
		api.POST("/overland", h.Locations.IngestOverland)

		// Places
		places := api.Group("/places")
		{
			places.POST("", h.Places.CreatePlace)
			places.GET("", h.Places.GetPlaces)
			places.GET("/current", h.Places.GetCurrentPlace)
			places.GET("/nearby", h.Places.GetNearbyPlaces)
			places.GET("/most-visited", h.Places.GetMostVisited)
			places.GET("/context", h.Places.GetContext)
			places.GET("/discover", h.Discovery.Discover)
			places.POST("/discover/confirm", h.Discovery.Confirm)
			places.GET("/routines", h.Routines.GetRoutines)
			places.GET("/routines/deviation", h.Routines.GetDeviation)
			places.GET("/:id", h.Places.GetPlace)
			places.PUT("/:id", h.Places.UpdatePlace)
			places.DELETE("/:id", h.Places.DeletePlace)
			places.GET("/:id/stats", h.Places.GetPlaceStats)
			places.GET("/:id/visits", h.Places.GetPlaceVisits)
			places.GET("/:id/tags", h.Tags.GetPlaceTags)
			places.POST("/:id/tags", h.Tags.AssignTag)
			places.DELETE("/:id/tags/:tagId", h.Tags.RemoveTag)
			places.GET("/:id/triggers", h.Triggers.GetTriggers)
			places.POST("/:id/triggers", h.Triggers.CreateTrigger)
			places.POST("/:id/memories", h.Places.LinkMemory)
			places.DELETE("/:id/memories/:memoryId", h.Places.UnlinkMemory)
		}

		// Visits
		api.GET("/visits", h.Places.GetVisits)

		// Tags
		tags := api.Group("/tags")
		{
			tags.POST("", h.Tags.CreateTag)
			tags.GET("", h.Tags.GetTags)
			tags.DELETE("/:id", h.Tags.DeleteTag)
			tags.GET("/:id/places", h.Tags.GetPlacesByTag)
		}

		// Triggers
		api.PUT("/triggers/:id", h.Triggers.UpdateTrigger)
		api.DELETE("/triggers/:id", h.Triggers.DeleteTrigger)

		// Lists
		lists := api.Group("/lists")
		{
			lists.POST("", h.Lists.CreateList)
			lists.GET("", h.Lists.GetLists)
			lists.GET("/:id", h.Lists.GetList)
			lists.PUT("/:id", h.Lists.UpdateList)
			lists.DELETE("/:id", h.Lists.DeleteList)
			lists.POST("/:id/places", h.Lists.AddListPlace)
			lists.DELETE("/:id/places/:placeId", h.Lists.RemoveListPlace)
			lists.PUT("/:id/order", h.Lists.ReorderList)
		}

		// Background jobs
		jobs := api.Group("/jobs")
		{
			jobs.GET("", h.Jobs.ListJobs)
			jobs.POST("/:name/run", h.Jobs.RunJob)
			jobs.GET("/runs", h.Jobs.ListRuns)
			jobs.GET("/runs/:id", h.Jobs.GetRun)
		}
	}

	return r
}
