package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// read instance from cache, ok is false on miss
func RetrieveRedis[T any](id int) (*T, bool, error) {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	var result T
	ok, err := config.GetRedisObject(key, &result)
	if err != nil || !ok {
		return nil, false, err
	}
	return &result, true, nil
}

// drop cached instance (after updates/deactivation)
func RemoveRedis[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// DefaultCashBoxCacheKey keys the (user, company) -> default box id lookup.
func DefaultCashBoxCacheKey(userId int, companyId int) string {
	return fmt.Sprintf("DefaultCashBox:%d:%d", userId, companyId)
}
