package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/qepting91/saved-response/internal/domain"
	"github.com/qepting91/saved-response/internal/metrics"
	"github.com/qepting91/saved-response/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// StartServer serves the dashboard until ctx is cancelled.
func StartServer(ctx context.Context, journalPath string, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(journalPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler serves the charts at "/" and Prometheus metrics at "/metrics".
// The metrics include counters read from the journal on each scrape.
func Handler(journalPath string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.JournalHandler(func() ([]domain.ActionRecord, error) {
		return storage.Load(journalPath)
	}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		records, err := storage.Load(journalPath)
		if err != nil {
			slog.Error("Journal read failed", "path", journalPath, "err", err)
			http.Error(w, "journal unavailable", http.StatusInternalServerError)
			return
		}

		// 1. Who answers
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Responses by Moderator"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)
		var pieItems []opts.PieData
		for _, kv := range countBy(records, func(r domain.ActionRecord) string { return r.Moderator }) {
			pieItems = append(pieItems, opts.PieData{Name: kv.key, Value: kv.count})
		}
		pie.AddSeries("Responses", pieItems)

		// 2. How it went, per delivery mode
		bar := charts.NewBar()
		bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Outcomes by Mode"}))

		statuses := countBy(records, func(r domain.ActionRecord) string { return r.Status })
		var barX []string
		for _, kv := range statuses {
			barX = append(barX, kv.key)
		}
		bar.SetXAxis(barX)
		for _, mode := range []string{"comment", "message", "post"} {
			var barY []opts.BarData
			for _, status := range barX {
				barY = append(barY, opts.BarData{Value: countWhere(records, mode, status)})
			}
			bar.AddSeries(mode, barY)
		}

		pie.Render(w)
		bar.Render(w)
	})
	return mux
}

type keyCount struct {
	key   string
	count int
}

// countBy tallies records by key, most frequent first.
func countBy(records []domain.ActionRecord, key func(domain.ActionRecord) string) []keyCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[key(r)]++
	}
	out := make([]keyCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, keyCount{key: k, count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func countWhere(records []domain.ActionRecord, mode, status string) int {
	n := 0
	for _, r := range records {
		if r.Mode == mode && r.Status == status {
			n++
		}
	}
	return n
}
