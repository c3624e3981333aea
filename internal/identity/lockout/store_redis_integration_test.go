//go:build integration

package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"impact/internal/identity/lockout"
	"impact/pkg/testutil/containers"
)

type LockoutRedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *lockout.RedisStore
	ctx   context.Context
}

func TestLockoutRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LockoutRedisSuite))
}

func (s *LockoutRedisSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = lockout.NewRedisStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *LockoutRedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *LockoutRedisSuite) TestFailureCountsAccumulate() {
	now := time.Now()
	for want := 1; want <= 3; want++ {
		count, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, time.Minute)
		s.Require().NoError(err)
		s.Equal(want, count)
	}

	s.Run("keys are independent", func() {
		count, err := s.store.AddFailure(s.ctx, "anna|10.0.0.2", now, time.Minute)
		s.Require().NoError(err)
		s.Equal(1, count)
	})
}

func (s *LockoutRedisSuite) TestWindowExpiryRestartsTheCount() {
	now := time.Now()
	_, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, 500*time.Millisecond)
	s.Require().NoError(err)
	_, err = s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, 500*time.Millisecond)
	s.Require().NoError(err)

	time.Sleep(700 * time.Millisecond)

	count, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", time.Now(), 500*time.Millisecond)
	s.Require().NoError(err)
	s.Equal(1, count, "the window anchors at the first failure and then lapses")
}

func (s *LockoutRedisSuite) TestLockAndRead() {
	now := time.Now()
	_, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, time.Minute)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Lock(s.ctx, "anna|10.0.0.1", now.Add(10*time.Second)))

	s.Run("locked until roughly the requested instant", func() {
		until, err := s.store.LockedUntil(s.ctx, "anna|10.0.0.1", now)
		s.Require().NoError(err)
		s.Require().NotNil(until)
		s.WithinDuration(now.Add(10*time.Second), *until, 2*time.Second)
	})

	s.Run("locking resets the failure count", func() {
		s.Require().NoError(s.redis.Client.Del(s.ctx, "lockout:lock:anna|10.0.0.1").Err())
		count, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, time.Minute)
		s.Require().NoError(err)
		s.Equal(1, count)
	})
}

func (s *LockoutRedisSuite) TestLockExpires() {
	now := time.Now()
	s.Require().NoError(s.store.Lock(s.ctx, "anna|10.0.0.1", now.Add(500*time.Millisecond)))

	time.Sleep(700 * time.Millisecond)

	until, err := s.store.LockedUntil(s.ctx, "anna|10.0.0.1", time.Now())
	s.Require().NoError(err)
	s.Nil(until)
}

func (s *LockoutRedisSuite) TestClear() {
	now := time.Now()
	_, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Lock(s.ctx, "anna|10.0.0.1", now.Add(time.Minute)))

	s.Require().NoError(s.store.Clear(s.ctx, "anna|10.0.0.1"))

	until, err := s.store.LockedUntil(s.ctx, "anna|10.0.0.1", now)
	s.Require().NoError(err)
	s.Nil(until)

	count, err := s.store.AddFailure(s.ctx, "anna|10.0.0.1", now, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, count)
}
