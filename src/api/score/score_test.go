package score

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/polkassembly/polkassembly-go/src/api/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:score_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// sqlite: serialize writers instead of surfacing SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&types.User{}, &types.ScoreEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&types.User{ID: 1, Username: "alice"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func TestApplyIncrementsAndJournals(t *testing.T) {
	db := testDB(t)
	p := NewProvider(db, nil)

	if err := p.Apply(1, ReasonProfileEdit); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := p.Apply(1, ReasonContentModerated); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var user types.User
	if err := db.First(&user, 1).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	want := DefaultDeltas()[ReasonProfileEdit] + DefaultDeltas()[ReasonContentModerated]
	if user.ProfileScore != want {
		t.Errorf("score = %d, want %d", user.ProfileScore, want)
	}

	var events []types.ScoreEvent
	if err := db.Order("id").Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[1].Delta != DefaultDeltas()[ReasonContentModerated] {
		t.Errorf("journal delta = %d, want the moderation penalty", events[1].Delta)
	}
}

func TestApplyUnknownReason(t *testing.T) {
	p := NewProvider(testDB(t), nil)
	if err := p.Apply(1, "made_up"); err == nil {
		t.Error("unknown reason must fail")
	}
}

func TestApplyMissingUser(t *testing.T) {
	p := NewProvider(testDB(t), nil)
	if err := p.Apply(99, ReasonProfileEdit); err == nil {
		t.Error("missing user must fail")
	}
}

func TestConcurrentDeltasDoNotClobber(t *testing.T) {
	db := testDB(t)
	p := NewProvider(db, nil)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Apply(1, ReasonPollVoted)
		}()
	}
	wg.Wait()

	var user types.User
	if err := db.First(&user, 1).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	want := int64(workers) * DefaultDeltas()[ReasonPollVoted]
	if user.ProfileScore != want {
		t.Errorf("score = %d, want %d (increments must be atomic)", user.ProfileScore, want)
	}
}
