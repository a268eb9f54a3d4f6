package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/sme-community/config"
	"github.com/d60-Lab/sme-community/internal/cache"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/internal/service"
	"github.com/d60-Lab/sme-community/pkg/database"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 { return 0 }
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 { k = 0 }
	if k >= len(xs) { k = len(xs)-1 }
	return xs[k]
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))

	// params
	USERS := 2000   // seeded users
	CASES := 500    // seeded use cases
	TOGGLES := 5000 // like toggles to run
	VIEWS := 10000  // view reports to run
	if s := os.Getenv("USERS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { USERS = v } }
	if s := os.Getenv("CASES"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { CASES = v } }
	if s := os.Getenv("TOGGLES"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { TOGGLES = v } }
	if s := os.Getenv("VIEWS"); s != "" { if v, e := strconv.Atoi(s); e == nil && v > 0 { VIEWS = v } }

	// clean tables for a reproducible run (ok for local bench)
	_ = db.Exec("TRUNCATE TABLE engagement_records, bookmarks, notifications, notification_outbox, use_cases, topics, replies, users RESTART IDENTITY CASCADE").Error
	must(0, db.AutoMigrate(&model.User{}, &model.UseCase{}, &model.Topic{}, &model.Reply{},
		&model.EngagementRecord{}, &model.Bookmark{}, &model.Notification{}, &model.NotificationOutbox{}))

	engageRepo := repository.NewEngagementRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	usecaseRepo := repository.NewUseCaseRepository(db)
	forumRepo := repository.NewForumRepository(db)
	rdb := database.InitRedis(cfg)
	viewGate := cache.NewViewGate(rdb, service.TopicViewWindow)
	svc := service.NewEngagementService(db, engageRepo, counterRepo, bookmarkRepo, usecaseRepo, forumRepo, nil, viewGate, nil)
	discovery := service.NewDiscoveryService(usecaseRepo, forumRepo, cache.NewResultCache(rdb, 30*time.Second))

	// seed users and use cases
	users := make([]model.User, USERS)
	for i := range users {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", Password: "p"}
	}
	must(0, db.CreateInBatches(&users, 1000).Error)
	cases := make([]model.UseCase, CASES)
	now := time.Now()
	for i := range cases {
		cases[i] = model.UseCase{
			ID: uuid.New().String(), AuthorID: users[i%USERS].ID,
			Title: fmt.Sprintf("case %d", i), Category: fmt.Sprintf("cat%d", i%10),
			Industry: fmt.Sprintf("ind%d", i%5), Technologies: "plc,mqtt",
			PublishedAt: now.Add(-time.Duration(rand.Intn(72)) * time.Hour),
		}
	}
	must(0, db.CreateInBatches(&cases, 500).Error)

	ctx := context.Background()

	// toggle throughput
	toggleDur := make([]time.Duration, 0, TOGGLES)
	for i := 0; i < TOGGLES; i++ {
		u := users[rand.Intn(USERS)].ID
		c := cases[rand.Intn(CASES)].ID
		st := time.Now()
		if _, err := svc.ToggleLike(ctx, model.EntityUseCase, c, u); err != nil { panic(err) }
		toggleDur = append(toggleDur, time.Since(st))
	}

	// view dedup throughput
	viewDur := make([]time.Duration, 0, VIEWS)
	counted := 0
	for i := 0; i < VIEWS; i++ {
		u := users[rand.Intn(USERS)].ID
		c := cases[rand.Intn(CASES)].ID
		st := time.Now()
		res, err := svc.RecordView(ctx, model.EntityUseCase, c, u)
		if err != nil { panic(err) }
		viewDur = append(viewDur, time.Since(st))
		if res.Counted { counted++ }
	}

	// trending read latency (cold + warm cache)
	st := time.Now()
	list := must(discovery.GetTrending(ctx, "week", "trending", 20))
	cold := time.Since(st)
	st = time.Now()
	_ = must(discovery.GetTrending(ctx, "week", "trending", 20))
	warm := time.Since(st)

	fmt.Printf("USERS=%d CASES=%d TOGGLES=%d VIEWS=%d\n", USERS, CASES, TOGGLES, VIEWS)
	fmt.Printf("Toggle latency: p50=%v p95=%v p99=%v\n", pct(toggleDur, 0.50), pct(toggleDur, 0.95), pct(toggleDur, 0.99))
	fmt.Printf("View latency:   p50=%v p95=%v p99=%v counted=%d/%d\n", pct(viewDur, 0.50), pct(viewDur, 0.95), pct(viewDur, 0.99), counted, VIEWS)
	fmt.Printf("Trending read:  cold=%v warm=%v rows=%d\n", cold, warm, len(list))
}
