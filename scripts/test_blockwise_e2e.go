//go:build ignore
// +build ignore

// test_blockwise_e2e is a manual end-to-end test for the assembled server.
// It boots the full pipeline: profile → store → HTTP API → scheduling engine,
// then walks the API the way a client would over a seeded week of history.
// NOT executed during CI (go test ./...).
//
// Usage:
//
//	go run scripts/test_blockwise_e2e.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hrygo/blockwise/engine/timeblock"
	"github.com/hrygo/blockwise/internal/profile"
	"github.com/hrygo/blockwise/server"
	"github.com/hrygo/blockwise/store"
	"github.com/hrygo/blockwise/store/db"
)

const e2eUser = "e2e"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dataDir, err := os.MkdirTemp("", "blockwise-e2e-")
	if err != nil {
		log.Fatalf("❌ MkdirTemp failed: %v", err)
	}
	defer os.RemoveAll(dataDir)

	instanceProfile := &profile.Profile{
		Mode:   "dev",
		Addr:   "127.0.0.1",
		Port:   28099,
		Data:   dataDir,
		Driver: "sqlite",
		DSN:    filepath.Join(dataDir, "blockwise_e2e.db"),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		log.Fatalf("❌ profile validation failed: %v", err)
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		log.Fatalf("❌ NewDBDriver failed: %v", err)
	}
	st := store.New(dbDriver, instanceProfile)
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("❌ Migrate failed: %v", err)
	}
	s, err := server.NewServer(ctx, instanceProfile, st)
	if err != nil {
		log.Fatalf("❌ NewServer failed: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		log.Fatalf("❌ Start failed: %v", err)
	}
	defer s.Shutdown(context.Background())

	base := fmt.Sprintf("http://%s:%d", instanceProfile.Addr, instanceProfile.Port)
	if err := waitReady(base + "/healthz"); err != nil {
		log.Fatalf("❌ server never became ready: %v", err)
	}
	log.Printf("✅ server ready at %s", base)

	today := string(timeblock.DateOf(time.Now()))

	// ─── Seed five days of history ─────────────────────────────────────
	seeded := 0
	for daysAgo := 1; daysAgo <= 5; daysAgo++ {
		date := string(timeblock.DateOf(time.Now().AddDate(0, 0, -daysAgo)))
		for _, b := range []struct {
			hour      int
			category  string
			completed bool
		}{
			{9, "work", true},
			{10, "work", daysAgo%2 == 0},
			{12, "break", true},
		} {
			status, body := call(base, http.MethodPost, "/api/v1/users/"+e2eUser+"/blocks", map[string]any{
				"date":            date,
				"hour":            b.hour,
				"startMinute":     0,
				"durationMinutes": 60,
				"category":        b.category,
				"completed":       b.completed,
				"title":           fmt.Sprintf("%s at %02d:00", b.category, b.hour),
			})
			if status != http.StatusOK {
				log.Fatalf("❌ seeding %s hour %d failed: %d %s", date, b.hour, status, truncate(string(body), 200))
			}
			seeded++
		}
	}
	log.Printf("✅ seeded %d history blocks", seeded)

	// ─── Walk the API ──────────────────────────────────────────────────
	step("GET profile", func() error {
		status, body := call(base, http.MethodGet, "/api/v1/users/"+e2eUser+"/profile", nil)
		if status != http.StatusOK {
			return fmt.Errorf("status %d: %s", status, body)
		}
		var p timeblock.Profile
		if err := json.Unmarshal(body, &p); err != nil {
			return err
		}
		if p.TotalBlocks != seeded {
			return fmt.Errorf("totalBlocks = %d, want %d", p.TotalBlocks, seeded)
		}
		log.Printf("   📝 totalBlocks=%d completionRate=%d%% peakHours=%v", p.TotalBlocks, p.CompletionRate, p.PeakHours)
		return nil
	})

	step("POST schedule", func() error {
		status, body := call(base, http.MethodPost, "/api/v1/users/"+e2eUser+"/schedule", map[string]any{
			"task": map[string]any{"title": "Write report", "category": "work", "durationMinutes": 60},
			"date": today,
		})
		if status != http.StatusOK {
			return fmt.Errorf("status %d: %s", status, body)
		}
		var sg timeblock.Suggestion
		if err := json.Unmarshal(body, &sg); err != nil {
			return err
		}
		if sg.Reason == "" {
			return fmt.Errorf("suggestion carries no reason: %s", body)
		}
		log.Printf("   📝 placed at %02d:%02d for %dm: %s", sg.Hour, sg.StartMinute, sg.DurationMinutes, truncate(sg.Reason, 100))
		return nil
	})

	step("POST schedule/batch", func() error {
		status, body := call(base, http.MethodPost, "/api/v1/users/"+e2eUser+"/schedule/batch", map[string]any{
			"tasks": []map[string]any{
				{"title": "Deep work", "category": "work", "durationMinutes": 90},
				{"title": "Inbox sweep", "category": "work", "durationMinutes": 30},
				{"title": "Reading", "category": "learning", "durationMinutes": 45},
			},
			"date": today,
		})
		if status != http.StatusOK {
			return fmt.Errorf("status %d: %s", status, body)
		}
		var result timeblock.BatchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return err
		}
		log.Printf("   📝 runId=%s placed=%d unplaced=%d", result.RunID, len(result.Placed), len(result.Unplaced))
		return nil
	})

	step("GET template", func() error {
		status, body := call(base, http.MethodGet, "/api/v1/users/"+e2eUser+"/template?date="+today, nil)
		if status != http.StatusOK {
			return fmt.Errorf("status %d: %s", status, body)
		}
		var tpl timeblock.DayTemplate
		if err := json.Unmarshal(body, &tpl); err != nil {
			return err
		}
		if len(tpl.Blocks) == 0 {
			return fmt.Errorf("template came back empty: %s", body)
		}
		log.Printf("   📝 %d blocks, basedOnPatterns=%v", len(tpl.Blocks), tpl.BasedOnPatterns)
		return nil
	})

	step("GET blocks with CEL filter", func() error {
		filter := url.QueryEscape(`category == "work" && !completed`)
		status, body := call(base, http.MethodGet, "/api/v1/users/"+e2eUser+"/blocks?filter="+filter, nil)
		if status != http.StatusOK {
			return fmt.Errorf("status %d: %s", status, body)
		}
		var blocks []json.RawMessage
		if err := json.Unmarshal(body, &blocks); err != nil {
			return err
		}
		if len(blocks) == 0 {
			return fmt.Errorf("filter matched nothing, seeds include pending work blocks")
		}
		log.Printf("   📝 %d pending work blocks", len(blocks))
		return nil
	})

	step("block lifecycle", func() error {
		status, body := call(base, http.MethodPost, "/api/v1/users/"+e2eUser+"/blocks", map[string]any{
			"date":            today,
			"hour":            20,
			"startMinute":     0,
			"durationMinutes": 30,
			"category":        "personal",
			"title":           "Evening walk",
		})
		if status != http.StatusOK {
			return fmt.Errorf("create: status %d: %s", status, body)
		}
		var created struct {
			UID string `json:"uid"`
		}
		if err := json.Unmarshal(body, &created); err != nil {
			return err
		}

		status, body = call(base, http.MethodPatch, "/api/v1/blocks/"+created.UID, map[string]any{"completed": true})
		if status != http.StatusOK {
			return fmt.Errorf("update: status %d: %s", status, body)
		}

		status, body = call(base, http.MethodDelete, "/api/v1/blocks/"+created.UID, nil)
		if status != http.StatusOK {
			return fmt.Errorf("delete: status %d: %s", status, body)
		}

		status, _ = call(base, http.MethodDelete, "/api/v1/blocks/"+created.UID, nil)
		if status != http.StatusNotFound {
			return fmt.Errorf("second delete: status %d, want 404", status)
		}
		log.Printf("   📝 create → complete → delete round trip on %s", created.UID)
		return nil
	})

	log.Println("\n🏁 All steps completed. Test passed!")
}

func step(name string, fn func() error) {
	log.Printf("\n" + strings.Repeat("═", 60))
	log.Printf("📤 %s", name)
	start := time.Now()
	if err := fn(); err != nil {
		log.Fatalf("❌ %s failed: %v", name, err)
	}
	log.Printf("✅ %s completed in %.2fs", name, time.Since(start).Seconds())
}

func call(base, method, path string, payload any) (int, []byte) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("❌ marshal request for %s %s: %v", method, path, err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, base+path, reqBody)
	if err != nil {
		log.Fatalf("❌ build request for %s %s: %v", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("❌ %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("❌ read response of %s %s: %v", method, path, err)
	}
	return resp.StatusCode, body
}

func waitReady(healthURL string) error {
	for i := 0; i < 50; i++ {
		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("no healthy response from %s within 5s", healthURL)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
