//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	subjectKeyPrefix = "flowmaestro:credits:"
	holdKeyPrefix    = "flowmaestro:hold:"
)

// holdScript atomically checks the available balance and places the hold.
// Balance and holds live in one hash per subject so a concurrent hold on the
// same subject cannot slip between the check and the increment.
var holdScript = redis.NewScript(`
local balance = tonumber(redis.call('HGET', KEYS[1], 'balance') or '0')
local held = tonumber(redis.call('HGET', KEYS[1], 'held') or '0')
local amount = tonumber(ARGV[1])
if balance - held < amount then
  return 0
end
redis.call('HINCRBYFLOAT', KEYS[1], 'held', amount)
redis.call('HSET', KEYS[2], 'subject', ARGV[2], 'amount', ARGV[1])
return 1
`)

// settleScript removes the hold and debits the actual usage.
var settleScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then
  return 0
end
local amount = tonumber(redis.call('HGET', KEYS[2], 'amount'))
redis.call('HINCRBYFLOAT', KEYS[1], 'held', -amount)
redis.call('HINCRBYFLOAT', KEYS[1], 'balance', -tonumber(ARGV[1]))
redis.call('DEL', KEYS[2])
return 1
`)

// releaseScript removes the hold without debiting anything.
var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then
  return 0
end
local amount = tonumber(redis.call('HGET', KEYS[2], 'amount'))
redis.call('HINCRBYFLOAT', KEYS[1], 'held', -amount)
redis.call('DEL', KEYS[2])
return 1
`)

// Redis is a Ledger backed by a Redis hash per subject, for deployments
// where multiple engine instances share one credit pool.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis connects to the given Redis URL and verifies the connection.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func subjectKey(subjectID string) string {
	return subjectKeyPrefix + subjectID
}

func holdKey(reservationID string) string {
	return holdKeyPrefix + reservationID
}

// SetBalance sets a subject's credit balance.
func (l *Redis) SetBalance(ctx context.Context, subjectID string, balance float64) error {
	return l.client.HSet(ctx, subjectKey(subjectID), "balance", balance).Err()
}

// CheckAllowance implements Ledger.
func (l *Redis) CheckAllowance(ctx context.Context, subjectID string, amount float64) (bool, error) {
	vals, err := l.client.HMGet(ctx, subjectKey(subjectID), "balance", "held").Result()
	if err != nil {
		return false, fmt.Errorf("read balance for %s: %w", subjectID, err)
	}
	balance := parseFloat(vals[0])
	held := parseFloat(vals[1])
	return balance-held >= amount, nil
}

// Hold implements Ledger.
func (l *Redis) Hold(ctx context.Context, subjectID string, amount float64) (*Reservation, error) {
	r := NewReservation(subjectID, amount)
	ok, err := holdScript.Run(ctx, l.client,
		[]string{subjectKey(subjectID), holdKey(r.ID)},
		amount, subjectID).Int()
	if err != nil {
		return nil, fmt.Errorf("hold credits for %s: %w", subjectID, err)
	}
	if ok == 0 {
		return nil, fmt.Errorf("%w: subject %s", ErrInsufficientBudget, subjectID)
	}
	return r, nil
}

// Settle implements Ledger.
func (l *Redis) Settle(ctx context.Context, r *Reservation, actual float64) error {
	if r == nil {
		return ErrReservationNotFound
	}
	ok, err := settleScript.Run(ctx, l.client,
		[]string{subjectKey(r.SubjectID), holdKey(r.ID)},
		actual).Int()
	if err != nil {
		return fmt.Errorf("settle reservation %s: %w", r.ID, err)
	}
	if ok == 0 {
		return fmt.Errorf("%w: %s", ErrReservationNotFound, r.ID)
	}
	return nil
}

// Release implements Ledger.
func (l *Redis) Release(ctx context.Context, r *Reservation) error {
	if r == nil {
		return ErrReservationNotFound
	}
	ok, err := releaseScript.Run(ctx, l.client,
		[]string{subjectKey(r.SubjectID), holdKey(r.ID)}).Int()
	if err != nil {
		return fmt.Errorf("release reservation %s: %w", r.ID, err)
	}
	if ok == 0 {
		return fmt.Errorf("%w: %s", ErrReservationNotFound, r.ID)
	}
	return nil
}

func parseFloat(v any) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	var f float64
	_, _ = fmt.Sscanf(s, "%g", &f)
	return f
}
