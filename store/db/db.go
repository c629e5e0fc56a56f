package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/repairdesk/internal/profile"
	"github.com/hrygo/repairdesk/store"
	"github.com/hrygo/repairdesk/store/db/bolt"
	"github.com/hrygo/repairdesk/store/db/redis"
	"github.com/hrygo/repairdesk/store/db/sqlite"
	"github.com/hrygo/repairdesk/store/memory"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "bolt":
		driver, err = bolt.NewDB(profile)
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "redis":
		driver, err = redis.NewDB(profile)
	case "memory":
		driver = memory.NewDriver()
	default:
		return nil, errors.Errorf("unknown db driver: %s (supported: bolt, sqlite, redis, memory)", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
