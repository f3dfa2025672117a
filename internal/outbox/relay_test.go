package outbox

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Mangesh9326/Job-Platform/internal/storage/models"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	fail      bool
}

func (f *fakePublisher) PublishMessage(_ context.Context, exchange, routingKey string, message []byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, exchange+"/"+routingKey+":"+string(message))
	return nil
}

func TestNewMessageRelay_Options(t *testing.T) {
	r := NewMessageRelay(nil, &fakePublisher{})
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)

	r = NewMessageRelay(nil, &fakePublisher{}, WithPollingInterval(time.Second), WithBatchSize(3))
	assert.Equal(t, time.Second, r.pollingInterval)
	assert.Equal(t, 3, r.batchSize)

	r = NewMessageRelay(nil, &fakePublisher{}, WithPollingInterval(0), WithBatchSize(-1))
	assert.Equal(t, defaultPollingInterval, r.pollingInterval)
	assert.Equal(t, defaultBatchSize, r.batchSize)
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := NewMessageRelay(nil, &fakePublisher{}, WithPollingInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Run(ctx))
}

// 需要 MySQL 8（SKIP LOCKED），设置 MYSQL_TEST_DSN 后运行
func openTestDB(t *testing.T) *gorm.DB {
	if testing.Short() {
		t.Skip("short 模式跳过 MySQL 测试")
	}
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("未设置 MYSQL_TEST_DSN")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxMessage{}))
	return db
}

func insertPending(t *testing.T, db *gorm.DB) *models.OutboxMessage {
	msg := &models.OutboxMessage{
		AggregateID:      uuid.Must(uuid.NewV7()).String(),
		EventType:        "resume.uploaded",
		Payload:          `{"upload_id":"x"}`,
		TargetExchange:   "resume.events.exchange",
		TargetRoutingKey: "resume.uploaded",
		Status:           models.OutboxStatusPending,
	}
	require.NoError(t, db.Create(msg).Error)
	t.Cleanup(func() { db.Delete(&models.OutboxMessage{}, msg.ID) })
	return msg
}

func TestProcessPendingMessages_MySQL(t *testing.T) {
	db := openTestDB(t)
	msg := insertPending(t, db)

	pub := &fakePublisher{}
	r := NewMessageRelay(db, pub, WithBatchSize(100))
	require.NoError(t, r.processPendingMessages(context.Background()))

	var got models.OutboxMessage
	require.NoError(t, db.First(&got, msg.ID).Error)
	assert.Equal(t, models.OutboxStatusSent, got.Status)
	assert.NotNil(t, got.ProcessedAt)
	// JSON 列返回的文本会被 MySQL 规整，只比较前缀
	found := false
	for _, p := range pub.published {
		if strings.HasPrefix(p, "resume.events.exchange/resume.uploaded:") && strings.Contains(p, "upload_id") {
			found = true
		}
	}
	assert.True(t, found, pub.published)
}

func TestProcessPendingMessages_RetriesThenFails(t *testing.T) {
	db := openTestDB(t)
	msg := insertPending(t, db)

	pub := &fakePublisher{fail: true}
	r := NewMessageRelay(db, pub, WithBatchSize(100))
	for i := 0; i < maxRetryCount; i++ {
		require.NoError(t, r.processPendingMessages(context.Background()))
	}

	var got models.OutboxMessage
	require.NoError(t, db.First(&got, msg.ID).Error)
	assert.Equal(t, models.OutboxStatusFailed, got.Status)
	assert.Equal(t, maxRetryCount, got.RetryCount)
	assert.Equal(t, "broker unavailable", got.ErrorMessage)
}
