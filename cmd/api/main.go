package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pairrank/internal/data"
	"pairrank/internal/features"
	"pairrank/internal/interaction"
	"pairrank/internal/report"
	"pairrank/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	lim := defaultLimits()
	if v, err := strconv.Atoi(os.Getenv("MAX_WORKERS")); err == nil && v > 0 {
		lim.workers = v
	}
	if v, err := strconv.Atoi(os.Getenv("MAX_PAIR_CELLS")); err == nil && v > 0 {
		lim.pairCells = v
	}
	r := newRouter(logger, lim)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("Serving FAST", zap.String("port", port), zap.Int("max_workers", lim.workers), zap.Int("max_pair_cells", lim.pairCells))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// limits bound the work one request can ask for. pairCells caps
// bins1*bins2 of the largest pair, which sizes the per-worker joint
// histogram and quadrant table.
type limits struct {
	workers   int
	pairCells int
}

func defaultLimits() limits {
	return limits{workers: 4, pairCells: 1 << 20}
}

func newRouter(logger *zap.Logger, lim limits) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	m := newMetrics()
	r.GET("/metrics", m.handler())

	h := &rankHandler{logger: logger, limits: lim, metrics: m}
	api := r.Group("/v1")
	api.Use(m.countStatus, apiKeyMiddleware)
	api.POST("/interactions", h.handleRank)
	return r
}

func apiKeyMiddleware(c *gin.Context) {
	key := os.Getenv("API_KEY")
	if key == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-API-Key") != key {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

type attributeReq struct {
	Name   string   `json:"name"`
	Type   string   `json:"type" binding:"required,oneof=binned nominal"`
	Bins   int      `json:"bins" binding:"min=0,max=4096"`
	States []string `json:"states" binding:"max=4096"`
}

type instanceReq struct {
	// null marks a missing value
	Values []*int   `json:"values" binding:"required"`
	Target float64  `json:"target"`
	Weight *float64 `json:"weight" binding:"omitempty,min=0"`
}

type rankReq struct {
	Attributes []attributeReq `json:"attributes" binding:"required,min=2,max=1024,dive"`
	Instances  []instanceReq  `json:"instances" binding:"required,min=1,max=1000000,dive"`
	Workers    int            `json:"workers" binding:"min=0"`
	Top        int            `json:"top" binding:"min=0"`
}

func (req rankReq) dataset() *data.Dataset {
	ds := &data.Dataset{Attributes: make([]data.Attribute, len(req.Attributes))}
	for j, a := range req.Attributes {
		name := a.Name
		if name == "" {
			name = "f" + strconv.Itoa(j)
		}
		if a.Type == "nominal" {
			att := data.Nominal(j, name, a.States)
			if len(a.States) == 0 {
				att.Cardinality = a.Bins
			}
			ds.Attributes[j] = att
		} else {
			ds.Attributes[j] = data.Binned(j, name, a.Bins)
		}
	}
	ds.Instances = make([]data.Instance, len(req.Instances))
	for i, in := range req.Instances {
		inst := data.Instance{Values: make([]int, len(in.Values)), Target: in.Target, Weight: 1}
		for j, v := range in.Values {
			if v == nil {
				inst.Values[j] = data.Missing
			} else {
				inst.Values[j] = *v
			}
		}
		if in.Weight != nil {
			inst.Weight = *in.Weight
		}
		ds.Instances[i] = inst
	}
	return ds
}

type rankHandler struct {
	logger  *zap.Logger
	limits  limits
	metrics *metrics
}

// largestPairCells is the product of the two largest bin counts.
func largestPairCells(ds *data.Dataset) int {
	var a, b int
	for _, att := range ds.Attributes {
		n, err := att.NumBins()
		if err != nil {
			continue
		}
		switch {
		case n > a:
			a, b = n, a
		case n > b:
			b = n
		}
	}
	return a * b
}

func (h *rankHandler) handleRank(c *gin.Context) {
	var req rankReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > h.limits.workers {
		workers = h.limits.workers
	}

	ds := req.dataset()
	if cells := largestPairCells(ds); cells > h.limits.pairCells {
		h.logger.Warn("Ranking rejected", zap.Int("pair_cells", cells), zap.Int("max_pair_cells", h.limits.pairCells))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": fmt.Sprintf("largest pair needs %d histogram cells, limit is %d", cells, h.limits.pairCells),
		})
		return
	}
	pairs := features.AllPairs(ds.NumAttributes())
	start := time.Now()
	ranked, err := interaction.Rank(ds, pairs, interaction.Options{Workers: workers})
	if err != nil {
		// anything short of a worker failure was rejected during validation
		status := http.StatusUnprocessableEntity
		if errors.Is(err, interaction.ErrWorkerFailed) {
			status = http.StatusInternalServerError
		}
		h.logger.Warn("Ranking rejected", zap.Int("status", status), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.metrics.latency.Observe(time.Since(start).Seconds())
	h.metrics.pairs.Add(float64(len(ranked)))
	h.logger.Info("Ranked interactions",
		zap.Int("instances", ds.Len()),
		zap.Int("pairs", len(ranked)),
		zap.Int("workers", workers),
		zap.Duration("time", time.Since(start)),
	)
	c.JSON(http.StatusOK, gin.H{"pairs": report.Entries(ranked, ds.Attributes, req.Top)})
}
