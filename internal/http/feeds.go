package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// FeedsController serves the dashboard read path and the manual run request
// endpoint.
type FeedsController struct {
	registry  *feed.Registry
	requester *feed.Requester
	tracker   *runstate.Tracker
}

func NewFeedsController(registry *feed.Registry, requester *feed.Requester, tracker *runstate.Tracker) *FeedsController {
	return &FeedsController{
		registry:  registry,
		requester: requester,
		tracker:   tracker,
	}
}

type requestFeedsPayload struct {
	Store int      `json:"store" binding:"required"`
	Feeds []string `json:"feeds" binding:"required"`
}

// RequestFeeds queues a feed run. The run itself is picked up by the
// requested-feeds trigger.
func (f *FeedsController) RequestFeeds(c *gin.Context) {
	var payload requestFeedsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := f.requester.RequestFeeds(payload.Store, payload.Feeds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"store": payload.Store,
		"feeds": f.tracker.GetRequestedFeeds(payload.Store),
	})
}

// GetStatuses returns the display status of every feed type for a store. One
// aggregator instance serves the whole request so the statuses are a
// consistent snapshot.
func (f *FeedsController) GetStatuses(c *gin.Context) {
	storeID, ok := storeParam(c)
	if !ok {
		return
	}

	status := feed.NewStatus(f.registry, f.tracker)
	statuses := make(map[string]feed.FeedStatus, len(feed.RunOrder))
	for _, feedType := range feed.RunOrder {
		feedStatus, err := status.GetFeedStatus(feedType, storeID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		statuses[feedType] = feedStatus
	}

	banner := f.tracker.GetBannerStatus(storeID)
	c.JSON(http.StatusOK, gin.H{
		"store": storeID,
		"feeds": statuses,
		"banner": gin.H{
			"welcome":         !banner.WelcomeShown,
			"getting_started": banner.ShowGettingStarted(time.Now()),
		},
	})
}

// GetProgress returns the raw progress value for one feed type.
func (f *FeedsController) GetProgress(c *gin.Context) {
	storeID, ok := storeParam(c)
	if !ok {
		return
	}

	feedType := c.Query("type")
	if !f.registry.Known(feedType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized feed type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store":    storeID,
		"type":     feedType,
		"progress": f.tracker.GetProgress(feedType, storeID),
		"running":  containsFeed(f.tracker.GetRunningFeeds(storeID), feedType),
	})
}

func storeParam(c *gin.Context) (int, bool) {
	storeID, err := strconv.Atoi(c.Query("store"))
	if err != nil || storeID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store parameter"})
		return 0, false
	}
	return storeID, true
}

func containsFeed(feedTypes []string, feedType string) bool {
	for _, ft := range feedTypes {
		if ft == feedType {
			return true
		}
	}
	return false
}
