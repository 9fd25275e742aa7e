package dummy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Port int
	// ErrorRate is the share of /error calls that fail, 0..1.
	ErrorRate float64
	Log       logrus.FieldLogger
}

// NewHandler serves a small API that a login → list → upload scenario can drive.
func NewHandler(cfg ServerConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]any
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: uuid.NewString(), Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"token": uuid.NewString()})
	})

	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		jitter := time.Duration(rand.Intn(40)+10) * time.Millisecond
		time.Sleep(jitter)
		items := make([]map[string]any, 5)
		for i := range items {
			items[i] = map[string]any{"id": i + 1, "name": fmt.Sprintf("item-%d", i+1)}
		}
		writeJSON(w, http.StatusOK, items)
	})

	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "expected multipart/form-data: "+err.Error(), http.StatusBadRequest)
			return
		}
		files := map[string]int64{}
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				files[field] = fh.Size
			}
		}
		fields := map[string]string{}
		for field, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				fields[field] = values[0]
			}
		}
		writeJSON(w, http.StatusCreated, map[string]any{"fields": fields, "files": files})
	})

	// 1s-2s, useful for deadline and timeout runs
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		jitter := time.Duration(rand.Intn(1000)+1000) * time.Millisecond
		select {
		case <-time.After(jitter):
		case <-r.Context().Done():
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Slow response"))
	})

	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		rnd := rand.Float64()
		switch {
		case rnd < cfg.ErrorRate/2:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("500 Internal Server Error"))
		case rnd < cfg.ErrorRate:
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("429 Too Many Requests"))
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}
	})

	return logRequests(mux, log)
}

// Serve runs the dummy API until ctx is done.
func Serve(ctx context.Context, cfg ServerConfig) error {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.WithField("addr", server.Addr).Info("dummy server listening, endpoints: /api/login /api/items /api/upload /slow /error")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func logRequests(next http.Handler, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		io.Copy(io.Discard, r.Body)
		log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start),
		}).Debug("served")
	})
}
