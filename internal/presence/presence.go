package presence

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Tracker records a doctor's last advertised availability. State is flipped
// only by explicit doctor-online/doctor-offline signals; there is no
// heartbeat or TTL, so a doctor that disconnects without signaling offline
// stays listed as online.
type Tracker interface {
	SetOnline(ctx context.Context, doctorId string) error
	SetOffline(ctx context.Context, doctorId string) error
	IsOnline(ctx context.Context, doctorId string) (bool, error)
	OnlineDoctorIds(ctx context.Context) ([]string, error)
}

const onlineDoctorsKey = "online_doctors"

// RedisTracker keeps the online set in Redis so presence survives a server
// restart and can be shared across instances.
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

func (t *RedisTracker) SetOnline(ctx context.Context, doctorId string) error {
	return t.client.SAdd(ctx, onlineDoctorsKey, doctorId).Err()
}

func (t *RedisTracker) SetOffline(ctx context.Context, doctorId string) error {
	return t.client.SRem(ctx, onlineDoctorsKey, doctorId).Err()
}

func (t *RedisTracker) IsOnline(ctx context.Context, doctorId string) (bool, error) {
	return t.client.SIsMember(ctx, onlineDoctorsKey, doctorId).Result()
}

func (t *RedisTracker) OnlineDoctorIds(ctx context.Context) ([]string, error) {
	return t.client.SMembers(ctx, onlineDoctorsKey).Result()
}

// MemTracker is the in-process fallback used when Redis is not configured.
type MemTracker struct {
	mu     sync.Mutex
	online map[string]struct{}
	order  []string
}

func NewMemTracker() *MemTracker {
	return &MemTracker{online: make(map[string]struct{})}
}

func (t *MemTracker) SetOnline(_ context.Context, doctorId string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.online[doctorId]; !ok {
		t.online[doctorId] = struct{}{}
		t.order = append(t.order, doctorId)
	}
	return nil
}

func (t *MemTracker) SetOffline(_ context.Context, doctorId string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.online[doctorId]; ok {
		delete(t.online, doctorId)
		for i, id := range t.order {
			if id == doctorId {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (t *MemTracker) IsOnline(_ context.Context, doctorId string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.online[doctorId]
	return ok, nil
}

func (t *MemTracker) OnlineDoctorIds(_ context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids, nil
}
