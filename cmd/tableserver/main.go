// tableserver exposes the many-to-many table engine over HTTP, built
// the way the teacher's own cmd/engine/main.go wires a chi router:
// flag-based configuration, a prometheus.Registry mounted at /metrics,
// cors, and log.Fatal on any setup error.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routingtable/internal/fixture"
	"routingtable/internal/metrics"
	"routingtable/internal/tablecache"
	"routingtable/pkg/httpapi"
)

var (
	listenAddr   = flag.String("listenaddr", ":5100", "server listen address")
	cachePath    = flag.String("cache", "./tablecache.db", "path to the on-disk table cache (empty disables caching)")
	fixtureSeed  = flag.Uint64("seed", 1, "seed for the built-in synthetic fixture graph")
	numNodes     = flag.Int("nodes", 2000, "number of nodes in the synthetic fixture graph")
	numEdges     = flag.Int("edges", 8000, "number of edges in the synthetic fixture graph")
	mldLevels    = flag.String("mld-levels", "50,500", "comma-separated cell group sizes, one per MLD partition level")
	useRateLimit = flag.Bool("ratelimit", false, "use rate limit")
)

func main() {
	flag.Parse()

	chGraph := fixture.RandomCHGraph(*numNodes, *numEdges, 100, *fixtureSeed)
	mldGraph := fixture.RandomMLDGraph(*numNodes, *numEdges, 100, *fixtureSeed, parseLevels(*mldLevels))

	var cache *tablecache.Cache
	if *cachePath != "" {
		var err error
		cache, err = tablecache.Open(*cachePath)
		if err != nil {
			log.Fatal(err)
		}
		defer cache.Close()
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(metrics.PromHTTPMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if *useRateLimit {
		r.Use(httprate.LimitByIP(100, time.Minute))
	}

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := httpapi.NewHandler(chGraph, mldGraph, m, cache)
	httpapi.Router(r, handler)

	fmt.Printf("\nmany-to-many table engine ready (ch + mld)")
	fmt.Printf("\nserver started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}

func parseLevels(spec string) []int {
	var levels []int
	group := 0
	has := false
	for _, c := range spec {
		switch {
		case c >= '0' && c <= '9':
			group = group*10 + int(c-'0')
			has = true
		case c == ',':
			if has {
				levels = append(levels, group)
			}
			group, has = 0, false
		}
	}
	if has {
		levels = append(levels, group)
	}
	if len(levels) == 0 {
		levels = []int{50, 500}
	}
	return levels
}
