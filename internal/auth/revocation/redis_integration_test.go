//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"campusbourses/internal/auth/revocation"
	"campusbourses/internal/platform/redis"
	"campusbourses/pkg/testutil/containers"
)

type RedisRevocationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	list  *revocation.Redis
}

func TestRedisRevocationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRevocationSuite))
}

func (s *RedisRevocationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.list = revocation.NewRedis(&redis.Client{Client: s.redis.Client})
}

func (s *RedisRevocationSuite) SetupTest() {
	ctx := context.Background()
	err := s.redis.FlushAll(ctx)
	s.Require().NoError(err)
}

func (s *RedisRevocationSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	tokenID := uuid.NewString()

	revoked, err := s.list.IsRevoked(ctx, tokenID)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.list.Revoke(ctx, tokenID, time.Hour))

	revoked, err = s.list.IsRevoked(ctx, tokenID)
	s.Require().NoError(err)
	s.True(revoked)

	// Other tokens are untouched.
	revoked, err = s.list.IsRevoked(ctx, uuid.NewString())
	s.Require().NoError(err)
	s.False(revoked)
}

// TestEntriesExpireWithTTL relies on Redis expiry to drop entries once the
// token would be dead anyway.
func (s *RedisRevocationSuite) TestEntriesExpireWithTTL() {
	ctx := context.Background()
	tokenID := uuid.NewString()

	s.Require().NoError(s.list.Revoke(ctx, tokenID, 500*time.Millisecond))

	revoked, err := s.list.IsRevoked(ctx, tokenID)
	s.Require().NoError(err)
	s.True(revoked)

	time.Sleep(700 * time.Millisecond)

	revoked, err = s.list.IsRevoked(ctx, tokenID)
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisRevocationSuite) TestZeroTTLIsIgnored() {
	ctx := context.Background()
	tokenID := uuid.NewString()

	// A token at or past its natural expiry needs no list entry.
	s.Require().NoError(s.list.Revoke(ctx, tokenID, 0))

	revoked, err := s.list.IsRevoked(ctx, tokenID)
	s.Require().NoError(err)
	s.False(revoked)
}
