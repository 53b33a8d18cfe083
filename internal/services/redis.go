package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetProviderAvailability caches a provider's is_active flag so listings
// can reflect a toggle without waiting on the next profile read.
func SetProviderAvailability(ctx context.Context, providerType string, providerID uint, isActive bool) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("provider:availability:%s:%d", providerType, providerID)
	value := "true"
	if !isActive {
		value = "false"
	}
	return RedisClient.Set(ctx, key, value, time.Hour).Err()
}

// GetProviderAvailability retrieves a provider's cached availability
func GetProviderAvailability(ctx context.Context, providerType string, providerID uint) (bool, error) {
	if RedisClient == nil {
		return false, redis.Nil
	}
	key := fmt.Sprintf("provider:availability:%s:%d", providerType, providerID)
	result, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result == "true", nil
}

// CacheTripPosition stores the latest walk position for the trip-share
// public view.
func CacheTripPosition(ctx context.Context, bookingID uint, lat, lng float64) error {
	if RedisClient == nil {
		return nil
	}
	positionData := map[string]interface{}{
		"lat":     lat,
		"lng":     lng,
		"updated": time.Now().Unix(),
	}

	data, err := json.Marshal(positionData)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("trip:position:%d", bookingID)
	return RedisClient.Set(ctx, key, data, time.Hour).Err()
}

// GetTripPosition retrieves the latest cached walk position
func GetTripPosition(ctx context.Context, bookingID uint) (lat, lng float64, err error) {
	if RedisClient == nil {
		return 0, 0, redis.Nil
	}
	key := fmt.Sprintf("trip:position:%d", bookingID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	var positionData map[string]interface{}
	if err := json.Unmarshal([]byte(data), &positionData); err != nil {
		return 0, 0, err
	}

	lat, _ = positionData["lat"].(float64)
	lng, _ = positionData["lng"].(float64)

	return lat, lng, nil
}

// PublishRequestUpdate publishes service request lifecycle events
// (created, accepted, rejected, expired) to Redis pub/sub.
func PublishRequestUpdate(ctx context.Context, requestID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}
	updateData := map[string]interface{}{
		"requestId": requestID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "request:updates", jsonData).Err()
}

// PublishBookingUpdate publishes booking status changes to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}
	updateData := map[string]interface{}{
		"bookingId": bookingID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", jsonData).Err()
}
